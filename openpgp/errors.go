package openpgp

import "github.com/pkg/errors"

// ErrTruncated is returned whenever a read would cross the end of the
// supplied byte slice. It is a sentinel: callers compare with
// errors.Cause(err) == ErrTruncated rather than type-asserting.
var ErrTruncated = errors.New("openpgp: truncated")

// ErrInvalidPacket covers any structural violation of a packet or
// subpacket body that is not simply running out of bytes: a length-prefix
// area whose inner lengths don't sum correctly, a reserved OID length, an
// old-format streaming length on a tag that may not carry one, and so on.
var ErrInvalidPacket = errors.New("openpgp: invalid packet")

// ParseError wraps ErrTruncated or ErrInvalidPacket (or another cause)
// with a note identifying where in the codec it was raised. Use
// errors.Cause to recover the sentinel.
type ParseError struct {
	Context string
	Err     error
}

func (e *ParseError) Error() string {
	return e.Context + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Cause implements the github.com/pkg/errors causer interface so
// errors.Cause(err) unwraps to the ErrTruncated/ErrInvalidPacket sentinel.
func (e *ParseError) Cause() error { return e.Err }

func truncated(context string) error {
	return &ParseError{Context: context, Err: ErrTruncated}
}

func invalid(context string, why string) error {
	return &ParseError{Context: context, Err: errors.Wrap(ErrInvalidPacket, why)}
}
