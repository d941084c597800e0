package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound   = errors.New("listing not found")
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrDuplicateFavorite = errors.New("favorite already exists")
	ErrForbidden         = errors.New("user not authorized to perform this action")
	ErrConflict          = errors.New("write conflicted with a concurrent change")
	ErrRemoteTransient   = errors.New("remote source temporarily unavailable")
)

// ValidationError reports the first unmet constraint on a create or update.
// Field matches the user-facing field name so callers can surface it verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
