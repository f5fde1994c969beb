package id

import "github.com/google/uuid"

// New returns a fresh opaque image identifier. IDs are assigned once at
// insert and never reused.
func New() string {
	return uuid.NewString()
}
