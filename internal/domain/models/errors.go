package models

import "errors"

var (
	// ErrUpdateFailed marks a store write failure for one entity during one
	// update. Callers count it and move on; it never aborts a pass.
	ErrUpdateFailed = errors.New("metrics update failed")

	// ErrEntityUnknown is a resolution miss. Not a failure: an event may
	// legitimately reference zero known entities.
	ErrEntityUnknown = errors.New("entity not in catalog")
)
