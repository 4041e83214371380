package core

import "github.com/vovakirdan/chatrelay/internal/mailbox"

// UnregisteredName is the display name of a client that has not registered yet.
const UnregisteredName = "unregistered"

// ClientRecord is one connected client as tracked by the directory.
// Workers hold read-only copies.
type ClientRecord struct {
	UserID     int        `json:"user_id"`
	Name       string     `json:"name"`
	Addr       string     `json:"addr"`
	Online     bool       `json:"online"`
	Registered bool       `json:"registered"`
	Mailbox    mailbox.ID `json:"-"`
}

// Snapshot is a point-in-time copy of the directory ordered by UserID.
// Generation increases with every directory mutation.
type Snapshot struct {
	Generation uint64         `json:"generation"`
	Entries    []ClientRecord `json:"clients"`
}

// Lookup returns the first entry whose name matches exactly.
func (s Snapshot) Lookup(name string) (ClientRecord, bool) {
	for _, rec := range s.Entries {
		if rec.Name == name {
			return rec, true
		}
	}
	return ClientRecord{}, false
}

// NameTaken reports whether any present entry uses name.
func (s Snapshot) NameTaken(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}
