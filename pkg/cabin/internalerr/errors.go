package internalerr

import "errors"

// Sentinel errors shared by the cabin packages; callers match them with
// errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidCatalog   = errors.New("invalid setting catalog")
	ErrMalformedTable   = errors.New("malformed normalization table")
)
