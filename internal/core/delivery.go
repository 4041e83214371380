package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/mailbox"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

// SnapshotSource yields a fresh directory snapshot.
type SnapshotSource interface {
	Refresh(ctx context.Context) (Snapshot, error)
}

// DeliveryResult is the outcome of a private message.
type DeliveryResult int

const (
	Delivered DeliveryResult = iota
	NotFound
	RejectedSentinel
)

// Delivery resolves recipients from fresh snapshots and sends mail to them.
type Delivery struct {
	transport Transport
	snapshots SnapshotSource
	log       *zerolog.Logger
}

// NewDelivery creates a delivery engine.
func NewDelivery(transport Transport, snapshots SnapshotSource, logger *zerolog.Logger) *Delivery {
	return &Delivery{transport: transport, snapshots: snapshots, log: logger}
}

// Broadcast sends text to every present client except from. With tag set the
// text is rendered as a broadcast line, otherwise it is delivered verbatim.
// Delivery is best-effort: recipients that vanished are skipped. It returns
// the number of mailboxes that accepted the message.
func (d *Delivery) Broadcast(ctx context.Context, from ClientRecord, text string, tag bool) (int, error) {
	snap, err := d.snapshots.Refresh(ctx)
	if err != nil {
		return 0, err
	}

	line := text
	if tag {
		line = proto.Broadcast(from.Name, text)
	}

	sent := 0
	for _, rec := range snap.Entries {
		if rec.UserID == from.UserID {
			continue
		}
		err := d.transport.Send(rec.Mailbox, Envelope{Kind: EnvelopeBroadcastMessage, From: from, Text: line})
		if errors.Is(err, mailbox.ErrUnknownMailbox) {
			d.log.Debug().Int("to", rec.UserID).Msg("broadcast recipient gone")
			continue
		}
		if err != nil {
			return sent, fmt.Errorf("broadcast to %d: %w", rec.UserID, err)
		}
		sent++
	}
	return sent, nil
}

// SendPrivate delivers text to the first client named target.
func (d *Delivery) SendPrivate(ctx context.Context, from ClientRecord, target, text string) (DeliveryResult, error) {
	if target == UnregisteredName {
		return RejectedSentinel, nil
	}

	snap, err := d.snapshots.Refresh(ctx)
	if err != nil {
		return NotFound, err
	}

	rec, ok := snap.Lookup(target)
	if !ok {
		return NotFound, nil
	}
	err = d.transport.Send(rec.Mailbox, Envelope{Kind: EnvelopePrivateMessage, From: from, Text: text})
	if errors.Is(err, mailbox.ErrUnknownMailbox) {
		return NotFound, nil
	}
	if err != nil {
		return NotFound, fmt.Errorf("private message to %d: %w", rec.UserID, err)
	}
	return Delivered, nil
}
