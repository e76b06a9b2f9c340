package levels

import (
	"embed"
	"fmt"
	"io/fs"
)

// FS holds the levels shipped with the binary.
//
//go:embed *.json
var FS embed.FS

// DefaultName is the embedded level used when no other source is configured.
const DefaultName = "default.json"

// LoadFromFS reads and parses a level document from fsys.
func LoadFromFS(fsys fs.FS, name string) (Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse level %s: %w", name, err)
	}
	return doc, nil
}

// Default returns the embedded default level.
func Default() (Document, error) {
	return LoadFromFS(FS, DefaultName)
}
