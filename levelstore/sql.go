package levelstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/milk9111/slingshot/levels"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLStore keeps levels in the levels table of a SQLite database.
type SQLStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQL opens (or creates) the database at dsn and applies pending migrations.
func OpenSQL(ctx context.Context, dsn string, log *zap.Logger) (*SQLStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("levelstore: cannot create directory for %s: %w", dsn, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("levelstore: cannot open database: %w", err)
	}
	// :memory: databases live only as long as their connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("levelstore: cannot connect to database: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, log: log}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Read(ctx context.Context, id string) (levels.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM levels WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &levels.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &levels.StorageError{Op: "read", ID: id, Err: err}
	}
	doc, err := levels.Parse([]byte(body))
	if err != nil {
		return nil, &levels.StorageError{Op: "read", ID: id, Err: err}
	}
	return doc, nil
}

func (s *SQLStore) Write(ctx context.Context, id string, doc levels.Document) error {
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
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO levels (id, body, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, id, string(data), now, now)
	if err != nil {
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}
	s.log.Debug("level written", zap.String("id", id), zap.Int("records", len(doc)))
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM levels ORDER BY id`)
	if err != nil {
		return nil, &levels.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &levels.StorageError{Op: "list", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &levels.StorageError{Op: "list", Err: err}
	}
	return ids, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM levels WHERE id = ?`, id)
	if err != nil {
		return &levels.StorageError{Op: "delete", ID: id, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &levels.StorageError{Op: "delete", ID: id, Err: err}
	}
	if n == 0 {
		return &levels.NotFoundError{ID: id}
	}
	s.log.Debug("level deleted", zap.String("id", id))
	return nil
}

var _ Store = (*SQLStore)(nil)
