package types

import "errors"

// Shared error kinds. Package sentinels wrap these so the HTTP layer can map
// them to status codes with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
