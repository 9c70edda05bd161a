package dirmngr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// ErrorKind is the closed set of error kinds spec §7 requires to be stable
// across the command-channel wire surface.
type ErrorKind int

const (
	KindInvalidArgument ErrorKind = iota
	KindParameter
	KindTruncated
	KindInvalidPacket
	KindInvalidCertificate
	KindMissingCertificate
	KindNoCRLKnown
	KindCertificateRevoked
	KindNotTrusted
	KindNotSupported
	KindUnknownOption
	KindUnknownCommand
	KindTimeout
	KindTransport
	KindNoData
	KindOutOfMemory
	KindInternal
)

// code is the wire-level token emitted after ERR, GnuPG-style: upper case,
// underscore separated.
func (k ErrorKind) code() string {
	switch k {
	case KindInvalidArgument:
		return "INV_ARG"
	case KindParameter:
		return "INV_PARAMETER"
	case KindTruncated:
		return "TRUNCATED"
	case KindInvalidPacket:
		return "INV_PACKET"
	case KindInvalidCertificate:
		return "INV_CERT"
	case KindMissingCertificate:
		return "MISSING_CERT"
	case KindNoCRLKnown:
		return "NO_CRL_KNOWN"
	case KindCertificateRevoked:
		return "CERT_REVOKED"
	case KindNotTrusted:
		return "NOT_TRUSTED"
	case KindNotSupported:
		return "NOT_SUPPORTED"
	case KindUnknownOption:
		return "UNKNOWN_OPTION"
	case KindUnknownCommand:
		return "UNKNOWN_COMMAND"
	case KindTimeout:
		return "ETIMEDOUT"
	case KindTransport:
		return "ENOTCONN"
	case KindNoData:
		return "NO_DATA"
	case KindOutOfMemory:
		return "ENOMEM"
	default:
		return "GENERAL"
	}
}

// Error is the typed error a handler returns to report an ERR line, per
// spec §7's propagation policy: codec/cache/network errors are translated
// into one of these kinds before being handed back to the dispatcher.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// wireLine renders the ERR response line for this error.
func (e *Error) wireLine() string {
	return "ERR " + e.Kind.code() + " " + e.Message
}

// newError builds a dirmngr.Error with no wrapped cause.
func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// wrapError translates an external error into a dirmngr.Error of the given
// kind, preserving it as the unwrap chain's cause.
func wrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.WithStack(cause)}
}

// asError coerces any error into a *Error, defaulting to KindInternal for
// errors that did not already originate from this package.
func asError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if stderrors.As(err, &de) {
		return de
	}
	return wrapError(KindInternal, "internal error", err)
}
