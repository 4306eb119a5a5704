package driver

import "github.com/pkg/errors"

// ErrorKind classifies a driver failure as a closed enumeration
// rather than a free-form message prefix, so callers can branch on
// the failure class without string matching.
type ErrorKind int

const (
	ErrKindIO ErrorKind = iota
	ErrKindMalformedInput
	ErrKindParams
	ErrKindAlign
	ErrKindCluster
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindIO:
		return "io"
	case ErrKindMalformedInput:
		return "malformed-input"
	case ErrKindParams:
		return "params"
	case ErrKindAlign:
		return "align"
	case ErrKindCluster:
		return "cluster"
	default:
		return "unknown"
	}
}

// Fail wraps cause with kind and context: a single returned error a
// caller can propagate, log, and -- via errors.Cause -- still inspect
// for the underlying failure.
func Fail(kind ErrorKind, context string, cause error) error {
	return errors.Wrapf(cause, "driver: %s: %s", kind, context)
}
