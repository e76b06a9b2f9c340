package levels

import (
	"errors"
	"fmt"
)

// NotFoundError reports a level id that the store does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("level %q not found", e.ID)
}

// ValidationError reports a malformed level document or id. Operations that
// return it have not mutated any state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid level: " + e.Reason
}

// StorageError wraps a read, write, list or delete failure of a level store.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("level storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("level storage %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Describe renders err as a short message for a HUD or editor notification.
func Describe(err error) string {
	var (
		notFound   *NotFoundError
		validation *ValidationError
		storage    *StorageError
	)
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("Level %q not found", notFound.ID)
	case errors.As(err, &validation):
		return "Invalid level: " + validation.Reason
	case errors.As(err, &storage):
		return "Storage error: " + storage.Err.Error()
	default:
		return err.Error()
	}
}
