package levelstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/milk9111/slingshot/levels"
	"go.uber.org/zap"
)

// FileStore keeps each level as <dir>/<id>.json.
type FileStore struct {
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &levels.StorageError{Op: "init", Err: err}
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Read(ctx context.Context, id string) (levels.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &levels.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &levels.StorageError{Op: "read", ID: id, Err: err}
	}
	doc, err := levels.Parse(data)
	if err != nil {
		return nil, &levels.StorageError{Op: "read", ID: id, Err: err}
	}
	return doc, nil
}

// Write replaces the level atomically through a temp file in the same directory.
func (s *FileStore) Write(ctx context.Context, id string, doc levels.Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := checkDocument(doc); err != nil {
		return err
	}
	data, err := levels.Marshal(doc)
	if err != nil {
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+id+"-*.tmp")
	if err != nil {
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}
	s.log.Debug("level written", zap.String("id", id), zap.Int("records", len(doc)))
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &levels.StorageError{Op: "list", Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := idFromPath(e.Name())
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return &levels.NotFoundError{ID: id}
	}
	if err != nil {
		return &levels.StorageError{Op: "delete", ID: id, Err: err}
	}
	s.log.Debug("level deleted", zap.String("id", id))
	return nil
}

// idFromPath maps a level file name to its id.
func idFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		return "", false
	}
	id := strings.TrimSuffix(name, filepath.Ext(name))
	return id, ValidID(id)
}

var _ Store = (*FileStore)(nil)
