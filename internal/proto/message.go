package proto

import (
	"fmt"
	"strings"
)

// Marker starts every client-issued command line.
const Marker = `\`

// Tags prefixed to server-to-client lines.
const (
	TagSystem         = "[SYSTEM_MSG]"
	TagError          = "[ERROR]"
	TagBroadcast      = "[BROADCAST]"
	TagPrivate        = "[PRIVATE_MSG]"
	TagDeliveryReport = "[DELIVERY_REPORT]"
)

// Greeting is the first line a new session receives.
const Greeting = "Hello!\n"

// Pong answers a ping.
const Pong = "pong\n"

// HelpText lists the commands a client can issue.
const HelpText = "List of commands:\n" +
	`\help              to print this help` + "\n" +
	`\ping              to check connection` + "\n" +
	`\reg <name>        to join the server` + "\n" +
	`\name <newname>    change name` + "\n" +
	`\leave             leave the server` + "\n" +
	`\list              list all users` + "\n" +
	`\all <msg>         send msg to all` + "\n" +
	`\pm <user> <msg>   private msg` + "\n" +
	`\reply <msg>       reply to person you last sent or received from` + "\n" +
	`\forward <name>    forward last private message sent or received` + "\n"

// Error renders an inline error line.
func Error(msg string) string {
	return TagError + ": " + msg + "\n"
}

// System renders a system notice line.
func System(format string, args ...any) string {
	return TagSystem + ": " + fmt.Sprintf(format, args...) + "\n"
}

// Joined announces a freshly registered name.
func Joined(name string) string {
	return System("%s has joined.", name)
}

// Renamed announces a name change.
func Renamed(oldName, newName string) string {
	return System("%s changed name to %s.", oldName, newName)
}

// Left announces a departure.
func Left(name string) string {
	return System("%s has left the server.", name)
}

// Broadcast renders a message sent with \all.
func Broadcast(from, text string) string {
	return fmt.Sprintf("%s: %s sent - %s\n", TagBroadcast, from, text)
}

// Private renders a private message as seen by its recipient.
func Private(from, text string) string {
	return fmt.Sprintf("%s: %s sent :- %s\n", TagPrivate, from, text)
}

// DeliveryReport confirms a private message to its sender.
func DeliveryReport(to, text string) string {
	return fmt.Sprintf("%s: %s received:- %s\n", TagDeliveryReport, to, text)
}

// BroadcastReport confirms a broadcast to its sender.
func BroadcastReport(text string) string {
	return fmt.Sprintf("%s: You broadcasted:- %s\n", TagDeliveryReport, text)
}

// ListEntry is one row of the user list.
type ListEntry struct {
	Name   string
	Online bool
}

// UserList renders the \list response.
func UserList(entries []ListEntry) string {
	var b strings.Builder
	b.WriteString("--------- Users List --------\n")
	for _, e := range entries {
		b.WriteString(e.Name)
		if e.Online {
			b.WriteString("  - Online\n")
		} else {
			b.WriteString("  - Offline\n")
		}
	}
	b.WriteString("------------------------------\n")
	return b.String()
}

// Tokenize splits a command line into the command word (without the marker)
// and its arguments. ok is false when the line does not start with Marker.
func Tokenize(line string) (word string, args []string, ok bool) {
	if !strings.HasPrefix(line, Marker) {
		return "", nil, false
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.TrimPrefix(fields[0], Marker), fields[1:], true
}
