package core

import (
	"fmt"
	"sort"

	"github.com/vovakirdan/chatrelay/internal/mailbox"
)

// Directory is the authoritative set of client records.
// It is not safe for concurrent use; the Coordinator is its only user.
type Directory struct {
	records    map[int]ClientRecord
	capacity   int
	lastID     int
	generation uint64
}

// NewDirectory creates an empty directory holding at most capacity records.
func NewDirectory(capacity int) *Directory {
	return &Directory{
		records:  make(map[int]ClientRecord),
		capacity: capacity,
	}
}

// Len returns the number of live records.
func (d *Directory) Len() int {
	return len(d.records)
}

// Full reports whether admitting one more client would exceed capacity.
func (d *Directory) Full() bool {
	return len(d.records)+1 > d.capacity
}

// Admit stores a new unregistered record under the next unused id.
func (d *Directory) Admit(addr string, box mailbox.ID) ClientRecord {
	d.lastID++
	rec := ClientRecord{
		UserID:  d.lastID,
		Name:    UnregisteredName,
		Addr:    addr,
		Online:  true,
		Mailbox: box,
	}
	d.records[rec.UserID] = rec
	d.generation++
	return rec
}

// Get returns the record for id.
func (d *Directory) Get(id int) (ClientRecord, bool) {
	rec, ok := d.records[id]
	return rec, ok
}

// Register marks id as registered under name.
func (d *Directory) Register(id int, name string) (ClientRecord, error) {
	rec, err := d.claim(id, name)
	if err != nil {
		return ClientRecord{}, err
	}
	rec.Name = name
	rec.Registered = true
	d.records[id] = rec
	d.generation++
	return rec, nil
}

// Rename changes the display name of id and returns the previous name.
// Only registered records can be renamed.
func (d *Directory) Rename(id int, name string) (string, error) {
	rec, err := d.claim(id, name)
	if err != nil {
		return "", err
	}
	if !rec.Registered {
		return "", ErrNotRegistered
	}
	old := rec.Name
	rec.Name = name
	d.records[id] = rec
	d.generation++
	return old, nil
}

// Remove deletes the record for id.
func (d *Directory) Remove(id int) (ClientRecord, bool) {
	rec, ok := d.records[id]
	if !ok {
		return ClientRecord{}, false
	}
	delete(d.records, id)
	d.generation++
	return rec, true
}

// Snapshot copies the directory ordered by UserID.
func (d *Directory) Snapshot() Snapshot {
	entries := make([]ClientRecord, 0, len(d.records))
	for _, rec := range d.records {
		entries = append(entries, rec)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return Snapshot{Generation: d.generation, Entries: entries}
}

// claim checks that id exists and name is free for it.
func (d *Directory) claim(id int, name string) (ClientRecord, error) {
	rec, ok := d.records[id]
	if !ok {
		return ClientRecord{}, fmt.Errorf("user %d: %w", id, ErrUnknownUser)
	}
	if name == "" || name == UnregisteredName {
		return ClientRecord{}, fmt.Errorf("name %q: %w", name, ErrNameTaken)
	}
	for otherID, other := range d.records {
		if otherID != id && other.Name == name {
			return ClientRecord{}, fmt.Errorf("name %q held by user %d: %w", name, otherID, ErrNameTaken)
		}
	}
	return rec, nil
}
