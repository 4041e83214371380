package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryIDsAreNeverReused(t *testing.T) {
	d := NewDirectory(3)

	a := d.Admit("a", "box-a")
	b := d.Admit("b", "box-b")
	assert.Equal(t, 1, a.UserID)
	assert.Equal(t, 2, b.UserID)

	_, ok := d.Remove(a.UserID)
	require.True(t, ok)

	c := d.Admit("c", "box-c")
	assert.Equal(t, 3, c.UserID)
	assert.Equal(t, 2, d.Len())
}

func TestDirectoryCapacity(t *testing.T) {
	d := NewDirectory(2)
	assert.False(t, d.Full())
	d.Admit("a", "box-a")
	assert.False(t, d.Full())
	d.Admit("b", "box-b")
	assert.True(t, d.Full())
}

func TestDirectoryNamesStayUnique(t *testing.T) {
	d := NewDirectory(10)
	a := d.Admit("a", "box-a")
	b := d.Admit("b", "box-b")

	_, err := d.Register(a.UserID, "alice")
	require.NoError(t, err)

	_, err = d.Register(b.UserID, "alice")
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = d.Register(b.UserID, UnregisteredName)
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = d.Register(b.UserID, "bob")
	require.NoError(t, err)

	_, err = d.Rename(b.UserID, "alice")
	assert.ErrorIs(t, err, ErrNameTaken)

	old, err := d.Rename(b.UserID, "robert")
	require.NoError(t, err)
	assert.Equal(t, "bob", old)

	// The freed name can be claimed again.
	_, err = d.Rename(a.UserID, "bob")
	assert.NoError(t, err)

	_, err = d.Register(42, "ghost")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestDirectoryRenameRequiresRegistration(t *testing.T) {
	d := NewDirectory(10)
	rec := d.Admit("a", "box-a")
	gen := d.Snapshot().Generation

	_, err := d.Rename(rec.UserID, "x")
	assert.ErrorIs(t, err, ErrNotRegistered)

	got, ok := d.Get(rec.UserID)
	require.True(t, ok)
	assert.Equal(t, UnregisteredName, got.Name)
	assert.False(t, got.Registered)
	assert.Equal(t, gen, d.Snapshot().Generation)
}

func TestDirectorySnapshotIsOrderedCopy(t *testing.T) {
	d := NewDirectory(10)
	for _, addr := range []string{"a", "b", "c", "d"} {
		d.Admit(addr, "")
	}
	d.Remove(2)

	snap := d.Snapshot()
	ids := make([]int, 0, len(snap.Entries))
	for _, rec := range snap.Entries {
		ids = append(ids, rec.UserID)
	}
	assert.Equal(t, []int{1, 3, 4}, ids)

	snap.Entries[0].Name = "mutated"
	rec, _ := d.Get(1)
	assert.Equal(t, UnregisteredName, rec.Name)
}

func TestDirectoryGenerationAdvancesOnMutation(t *testing.T) {
	d := NewDirectory(10)
	g0 := d.Snapshot().Generation

	a := d.Admit("a", "")
	g1 := d.Snapshot().Generation
	assert.Greater(t, g1, g0)

	assert.Equal(t, g1, d.Snapshot().Generation, "reads do not advance the generation")

	_, err := d.Register(a.UserID, "alice")
	require.NoError(t, err)
	assert.Greater(t, d.Snapshot().Generation, g1)
}

func TestSnapshotLookupFirstMatchWins(t *testing.T) {
	snap := Snapshot{Entries: []ClientRecord{
		{UserID: 1, Name: "x", Mailbox: "first"},
		{UserID: 2, Name: "x", Mailbox: "second"},
	}}
	rec, ok := snap.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, rec.UserID)

	_, ok = snap.Lookup("y")
	assert.False(t, ok)
}
