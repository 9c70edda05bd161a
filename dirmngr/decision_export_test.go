package dirmngr

import "context"

// This file exists solely to let decision_test.go and dispatch_test.go
// live in the external dirmngr_test package (required so they can import
// dirmngrtest, which itself imports dirmngr, without creating an import
// cycle). It re-exports the unexported pieces those tests need, without
// changing any production behavior.

// IsvalidArg is an exported alias for isvalidArg, for use by external tests.
type IsvalidArg = isvalidArg

// ParseISVALIDArg exposes parseISVALIDArg to external tests.
func ParseISVALIDArg(s string) (IsvalidArg, error) {
	return parseISVALIDArg(s)
}

// Inquirer is an exported mirror of the unexported inquirer interface, for
// use by external tests that need to supply a fake.
type Inquirer interface {
	Inquire(ctx context.Context, keyword string, maxBytes int) ([]byte, error)
}

type inquirerAdapter struct{ inq Inquirer }

func (a inquirerAdapter) inquire(ctx context.Context, keyword string, maxBytes int) ([]byte, error) {
	return a.inq.Inquire(ctx, keyword, maxBytes)
}

// DecideISVALID exposes decideISVALID to external tests.
func DecideISVALID(ctx context.Context, c *Controller, inq Inquirer, onlyOCSP, forceDefaultResponder bool, arg IsvalidArg) error {
	return decideISVALID(ctx, c, inquirerAdapter{inq}, onlyOCSP, forceDefaultResponder, arg)
}

// AsError exposes asError to external tests.
func AsError(err error) *Error {
	return asError(err)
}

// Code exposes ErrorKind.code to external tests.
func (k ErrorKind) Code() string {
	return k.code()
}
