// Package levelstore persists level documents by id, either as JSON files in
// a directory or as rows in SQLite.
package levelstore

import (
	"context"
	"regexp"

	"github.com/milk9111/slingshot/levels"
)

// Store is the key-value contract of the level persistence service. Errors
// are levels.NotFoundError, levels.ValidationError or levels.StorageError.
type Store interface {
	Read(ctx context.Context, id string) (levels.Document, error)
	Write(ctx context.Context, id string, doc levels.Document) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type Op string

const (
	OpWrite  Op = "write"
	OpDelete Op = "delete"
)

// Change is one entry of the change feed.
type Change struct {
	Op Op     `json:"op"`
	ID string `json:"id"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id can name a level. Ids double as file names, so
// separators and dots are rejected.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func checkID(id string) error {
	if !ValidID(id) {
		return &levels.ValidationError{Reason: "level id must match [A-Za-z0-9_-]+"}
	}
	return nil
}

func checkDocument(doc levels.Document) error {
	if len(doc) == 0 {
		return &levels.ValidationError{Reason: "level data must be a non-empty array"}
	}
	return nil
}
