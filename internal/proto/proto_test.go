package proto

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReaderStripsTerminators(t *testing.T) {
	lr := NewLineReader(strings.NewReader("\\ping\r\n\\help\nlast"), 500)

	line, err := lr.Next()
	require.NoError(t, err)
	assert.Equal(t, `\ping`, line.Text)

	line, err = lr.Next()
	require.NoError(t, err)
	assert.Equal(t, `\help`, line.Text)

	line, err = lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "last", line.Text)

	_, err = lr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderFlagsOversizedLines(t *testing.T) {
	long := strings.Repeat("x", 5000)
	lr := NewLineReader(strings.NewReader(long+"\n\\ping\n"), 500)

	line, err := lr.Next()
	require.NoError(t, err)
	assert.True(t, line.TooLong)
	assert.Empty(t, line.Text)

	// The session keeps going after an oversized line.
	line, err = lr.Next()
	require.NoError(t, err)
	assert.False(t, line.TooLong)
	assert.Equal(t, `\ping`, line.Text)
}

func TestLineReaderAcceptsLineAtLimit(t *testing.T) {
	exact := strings.Repeat("y", 500)
	lr := NewLineReader(strings.NewReader(exact+"\r\n"), 500)

	line, err := lr.Next()
	require.NoError(t, err)
	assert.False(t, line.TooLong)
	assert.Equal(t, exact, line.Text)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		word string
		args []string
		ok   bool
	}{
		{name: "bare command", line: `\help`, word: "help", args: []string{}, ok: true},
		{name: "with args", line: `\pm bob hello   there`, word: "pm", args: []string{"bob", "hello", "there"}, ok: true},
		{name: "tabs split too", line: "\\all\thi", word: "all", args: []string{"hi"}, ok: true},
		{name: "no marker", line: "hello", ok: false},
		{name: "marker not first", line: ` \help`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, args, ok := Tokenize(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.word, word)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "[ERROR]: Invalid Command\n", Error("Invalid Command"))
	assert.Equal(t, "[SYSTEM_MSG]: alice has joined.\n", Joined("alice"))
	assert.Equal(t, "[SYSTEM_MSG]: alice changed name to al.\n", Renamed("alice", "al"))
	assert.Equal(t, "[SYSTEM_MSG]: bob has left the server.\n", Left("bob"))
	assert.Equal(t, "[BROADCAST]: alice sent - hi all\n", Broadcast("alice", "hi all"))
	assert.Equal(t, "[PRIVATE_MSG]: alice sent :- psst\n", Private("alice", "psst"))
	assert.Equal(t, "[DELIVERY_REPORT]: bob received:- psst\n", DeliveryReport("bob", "psst"))
	assert.Equal(t, "[DELIVERY_REPORT]: You broadcasted:- hi all\n", BroadcastReport("hi all"))
}

func TestUserList(t *testing.T) {
	out := UserList([]ListEntry{{Name: "alice", Online: true}, {Name: "unregistered", Online: false}})
	assert.Equal(t, "--------- Users List --------\n"+
		"alice  - Online\n"+
		"unregistered  - Offline\n"+
		"------------------------------\n", out)
}
