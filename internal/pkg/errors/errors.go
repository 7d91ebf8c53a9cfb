package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalid           = errors.New("invalid")
	ErrConflict          = errors.New("conflict")
	ErrTooMany           = errors.New("too many requests")
	ErrInternal          = errors.New("internal")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrRetrievalTimeout  = errors.New("retrieval timeout")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
