package rcon

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure. The protocol engine raises exactly one
// Kind per failure so callers can decide whether the session survives
// (interactive mode keeps running after a ResponseTimeout or ServerRejected,
// everything else tears the session down).
type Kind int

const (
	KindUnknown Kind = iota
	KindResolutionFailed
	KindConnectFailed
	KindAuthFailed
	KindServerRejected
	KindConnectionLost
	KindIo
	KindMalformedFrame
	KindProtocolViolation
	KindResponseTimeout
	KindConfigError
	KindBadArgument
)

func (k Kind) String() string {
	switch k {
	case KindResolutionFailed:
		return "ResolutionFailed"
	case KindConnectFailed:
		return "ConnectFailed"
	case KindAuthFailed:
		return "AuthFailed"
	case KindServerRejected:
		return "ServerRejected"
	case KindConnectionLost:
		return "ConnectionLost"
	case KindIo:
		return "Io"
	case KindMalformedFrame:
		return "MalformedFrame"
	case KindProtocolViolation:
		return "ProtocolViolation"
	case KindResponseTimeout:
		return "ResponseTimeout"
	case KindConfigError:
		return "ConfigError"
	case KindBadArgument:
		return "BadArgument"
	default:
		return "Unknown"
	}
}

// Error is the single error type raised by this package. Addr carries the
// offending host:port when one is known; Cause carries the underlying OS or
// I/O error, reachable through errors.Unwrap.
type Error struct {
	Kind  Kind
	Msg   string
	Addr  string
	Cause error
}

func (e *Error) Error() string {
	s := e.Kind.String() + ": " + e.Msg
	if e.Addr != "" {
		s += " (" + e.Addr + ")"
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, &Error{Kind: k}) match on Kind alone, so callers
// can classify without unpacking the struct.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, addr string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Addr:  addr,
		Cause: cause,
	}
}

// IsKind reports whether err is (or wraps) a session error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
