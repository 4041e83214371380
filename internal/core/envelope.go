package core

import "github.com/vovakirdan/chatrelay/internal/mailbox"

// EnvelopeKind tags the payload carried by an Envelope.
type EnvelopeKind int

const (
	// EnvelopeSnapshotRequest asks the coordinator for a directory snapshot.
	EnvelopeSnapshotRequest EnvelopeKind = iota
	// EnvelopeSnapshotReply answers a snapshot request.
	EnvelopeSnapshotReply
	// EnvelopeRegistered tells the coordinator a client registered a name.
	EnvelopeRegistered
	// EnvelopeRenamed tells the coordinator a client changed its name.
	EnvelopeRenamed
	// EnvelopeQuit tells the coordinator a client departed.
	EnvelopeQuit
	// EnvelopePrivateMessage carries a private message between workers.
	EnvelopePrivateMessage
	// EnvelopeBroadcastMessage carries a preformatted line for every other client.
	EnvelopeBroadcastMessage
	// EnvelopeNameRejected tells a worker the coordinator refused its name.
	EnvelopeNameRejected
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeSnapshotRequest:
		return "snapshot_request"
	case EnvelopeSnapshotReply:
		return "snapshot_reply"
	case EnvelopeRegistered:
		return "registered"
	case EnvelopeRenamed:
		return "renamed"
	case EnvelopeQuit:
		return "quit"
	case EnvelopePrivateMessage:
		return "private_message"
	case EnvelopeBroadcastMessage:
		return "broadcast_message"
	case EnvelopeNameRejected:
		return "name_rejected"
	default:
		return "unknown"
	}
}

// Envelope is the unit of mail exchanged between the coordinator and workers.
type Envelope struct {
	Kind EnvelopeKind

	// Snapshot request/reply.
	ReplyTo  mailbox.ID
	Seq      uint64
	Snapshot *Snapshot

	// Registered, Renamed, NameRejected.
	UserID  int
	Name    string
	OldName string

	// Quit.
	Record *ClientRecord

	// Private and broadcast messages.
	From ClientRecord
	Text string
}

// Transport delivers envelopes between mailboxes.
type Transport interface {
	Open() (*mailbox.Mailbox[Envelope], error)
	Send(to mailbox.ID, env Envelope) error
	Release(id mailbox.ID)
}
