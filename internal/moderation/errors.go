package moderation

import (
	"github.com/pkg/errors"

	"github.com/kalorio/kalorio/internal/domain"
)

// ErrNotFound is returned when a moderation target does not exist.
var ErrNotFound = errors.New("moderation: product not found")

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "moderation: " + e.Message
}

// ConflictError carries the conflicting candidates so the caller can
// disambiguate instead of blindly retrying.
type ConflictError struct {
	Message    string
	Candidates []*domain.Product
}

func (e *ConflictError) Error() string {
	return "moderation: " + e.Message
}
