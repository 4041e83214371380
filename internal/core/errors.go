package core

import "errors"

// Error codes for client-visible errors.
const (
	ErrCodeInvalidCommand    = "invalid_command"
	ErrCodeTooLong           = "too_long"
	ErrCodeRegisterFirst     = "register_first"
	ErrCodeAlreadyRegistered = "already_registered"
	ErrCodeNameRequired      = "name_required"
	ErrCodeNameExists        = "name_exists"
	ErrCodeSameName          = "same_name"
	ErrCodeTargetRequired    = "target_required"
	ErrCodeEmptyMessage      = "empty_message"
	ErrCodeUnregisteredPeer  = "unregistered_peer"
	ErrCodeUserNotFound      = "user_not_found"
	ErrCodeNoConversation    = "no_conversation"
	ErrCodeUnavailable       = "unavailable"
)

// Infrastructure errors. These never reach a client verbatim.
var (
	ErrCapacity        = errors.New("capacity reached")
	ErrStopped         = errors.New("coordinator stopped")
	ErrSnapshotTimeout = errors.New("snapshot request timed out")
	ErrUnknownUser     = errors.New("unknown user")
	ErrNameTaken       = errors.New("name taken")
	ErrNotRegistered   = errors.New("not registered")
)

// CoreError wraps a code and the message shown to the client.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

var (
	errInvalidCommand    = coreError(ErrCodeInvalidCommand, "Invalid Command")
	errTooLong           = coreError(ErrCodeTooLong, "Message too long")
	errRegisterFirst     = coreError(ErrCodeRegisterFirst, "Register first.")
	errAlreadyRegistered = coreError(ErrCodeAlreadyRegistered, "You have already registered.")
	errNameRequired      = coreError(ErrCodeNameRequired, "Name cannot be null.")
	errNameExists        = coreError(ErrCodeNameExists, "Name already exists.")
	errSameName          = coreError(ErrCodeSameName, "It's already your name.")
	errTargetRequired    = coreError(ErrCodeTargetRequired, "Mention who you want to send to.")
	errEmptyMessage      = coreError(ErrCodeEmptyMessage, "Message cannot be empty.")
	errUnregisteredPeer  = coreError(ErrCodeUnregisteredPeer, "You can't message an unregistered user.")
	errUserNotFound      = coreError(ErrCodeUserNotFound, "User does not exist.")
	errNoConversation    = coreError(ErrCodeNoConversation, "No one has messaged you yet.")
	errUnavailable       = coreError(ErrCodeUnavailable, "Directory unavailable, try again.")
)
