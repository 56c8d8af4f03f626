package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and sources return these
// (optionally wrapped) so services can decide between fallback, default and
// failure without inspecting driver errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: record already exists with the same identity
//   - ErrUnavailable: dependency temporarily unreachable
//   - ErrInvalidDataset: a payload parsed but is unusable (empty or partial)
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrUnavailable    = errors.New("unavailable")
	ErrInvalidDataset = errors.New("invalid dataset")
)
