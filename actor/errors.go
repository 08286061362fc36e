package actor

import (
	"fmt"

	"github.com/lguibr/bollywood/message"
)

// SendErrorKind enumerates why Tell/Send could not deliver a message.
type SendErrorKind int

const (
	SendFull SendErrorKind = iota
	SendClosed
	SendInvalidRecipient
)

func (k SendErrorKind) String() string {
	switch k {
	case SendFull:
		return "full"
	case SendClosed:
		return "closed"
	case SendInvalidRecipient:
		return "invalid_recipient"
	default:
		return "unknown"
	}
}

// SendError carries the undelivered message back to the caller, per
// spec.md §7's "Callers receive the message back."
type SendError struct {
	Kind    SendErrorKind
	Message message.AnyOwnedMessage
}

func (e *SendError) Error() string { return "actor: send " + e.Kind.String() }

// SpawnErrorKind enumerates why Spawn could not create an actor.
type SpawnErrorKind int

const (
	SpawnInvalidName SpawnErrorKind = iota
	SpawnDuplicateName
	SpawnMailboxMisconfigured
	SpawnSystemShuttingDown
)

func (k SpawnErrorKind) String() string {
	switch k {
	case SpawnInvalidName:
		return "invalid_name"
	case SpawnDuplicateName:
		return "duplicate_name"
	case SpawnMailboxMisconfigured:
		return "mailbox_misconfigured"
	case SpawnSystemShuttingDown:
		return "system_shutting_down"
	default:
		return "unknown"
	}
}

// SpawnError is returned to the caller of SpawnChild/ActorSystem.New.
type SpawnError struct {
	Kind SpawnErrorKind
	Name string
}

func (e *SpawnError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("actor: spawn %s: %s", e.Kind, e.Name)
	}
	return "actor: spawn " + e.Kind.String()
}

// ActorErrorKind distinguishes a recoverable failure (subject to
// supervision) from a fatal one (always escalated).
type ActorErrorKind int

const (
	Recoverable ActorErrorKind = iota
	Fatal
)

func (k ActorErrorKind) String() string {
	if k == Fatal {
		return "fatal"
	}
	return "recoverable"
}

// ActorError is the error type a Receive implementation returns to signal a
// failure that supervision should act on, as opposed to a Go error it chose
// to handle itself.
type ActorError struct {
	Kind   ActorErrorKind
	Reason string
}

func (e *ActorError) Error() string { return fmt.Sprintf("actor: %s: %s", e.Kind, e.Reason) }

// NewRecoverableError constructs a Recoverable ActorError.
func NewRecoverableError(reason string) *ActorError { return &ActorError{Kind: Recoverable, Reason: reason} }

// NewFatalError constructs a Fatal ActorError.
func NewFatalError(reason string) *ActorError { return &ActorError{Kind: Fatal, Reason: reason} }

// SerializationErrorKind enumerates why the serialization extension could
// not encode or decode a message.
type SerializationErrorKind int

const (
	SerializationNoSerializer SerializationErrorKind = iota
	SerializationManifestMismatch
	SerializationCodecFailure
)

func (k SerializationErrorKind) String() string {
	switch k {
	case SerializationNoSerializer:
		return "no_serializer"
	case SerializationManifestMismatch:
		return "manifest_mismatch"
	case SerializationCodecFailure:
		return "codec_failure"
	default:
		return "unknown"
	}
}

// SerializationError is published as a SerializationErrorEvent and
// deadletters the offending message; it never propagates as a Go error to a
// sender's goroutine.
type SerializationError struct {
	Kind SerializationErrorKind
	Type string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("actor: serialization %s: %s", e.Kind, e.Type)
}
