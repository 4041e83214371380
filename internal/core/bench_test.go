package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/mailbox"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	tr := mailbox.NewTransport[Envelope]("bench")
	snaps := &staticSnapshots{}
	boxes := make([]*mailbox.Mailbox[Envelope], 0, recipients+1)

	for i := 0; i <= recipients; i++ {
		box, err := tr.Open()
		if err != nil {
			b.Fatal(err)
		}
		boxes = append(boxes, box)
		snaps.snap.Entries = append(snaps.snap.Entries, ClientRecord{
			UserID:  i + 1,
			Name:    fmt.Sprintf("user%d", i),
			Mailbox: box.ID(),
		})
	}

	logger := zerolog.Nop()
	d := NewDelivery(tr, snaps, &logger)
	sender := snaps.snap.Entries[0]
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := d.Broadcast(ctx, sender, "payload", true); err != nil {
			b.Fatal(err)
		}
		// Keep mailboxes from growing without bound.
		for _, box := range boxes[1:] {
			box.TryReceive()
		}
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
