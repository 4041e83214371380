// Package core implements the chat relay: a Coordinator that owns the client
// directory and one Worker per connection. Workers never touch the directory;
// they mail events to the coordinator and pull snapshots from it over the
// mailbox transport, then fan messages out to other workers' mailboxes.
package core
