package ledger

import "errors"

// Fatal rebuild errors. Any of these aborts the whole replay before anything
// is published; previously published tables stay untouched.
var (
	ErrUnknownSecurity = errors.New("security not found in directory")
	ErrMalformedNumber = errors.New("malformed numeric value")
	ErrMalformedDate   = errors.New("malformed date value")
)
