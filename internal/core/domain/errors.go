package domain

import "errors"

// Store errors. Absence of a row is usually a domain outcome handled with
// a chat reply, so only faults the caller must branch on live here.
var (
	ErrStoreUnavailable = errors.New("backing store unavailable")
	ErrRecordNotFound   = errors.New("record not found")
)
