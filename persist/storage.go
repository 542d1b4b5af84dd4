package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"crsl/carousel"
	"crsl/config"
)

// ErrNotFound is returned when storage has no document with requested id.
var ErrNotFound = errors.New("document not found")

// Storage is save collaborator. No retry policy is built in, callers decide.
type Storage interface {
	Save(ctx context.Context, id string, doc *carousel.Document) error
	Load(ctx context.Context, id string) (*carousel.Document, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

// OpenStorage opens storage selected by configuration.
func OpenStorage(cfg *config.StorageConfig, log *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case config.StorageDriverSqlite:
		s, err := OpenSQLite(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageDriverFile:
		s, err := NewFileStore(cfg.Directory, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %s", cfg.Driver)
}

const schema = `CREATE TABLE IF NOT EXISTS documents (
	id       TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	revision INTEGER NOT NULL DEFAULT 1,
	saved_at TEXT NOT NULL
)`

// SQLiteStore keeps documents as JSON payloads with revision counter.
type SQLiteStore struct {
	log  *zap.Logger
	mu   sync.Mutex
	conn *sqlite.Conn
}

// OpenSQLite opens (creating when necessary) database at path. Path
// ":memory:" opens private in-memory database.
func OpenSQLite(path string, log *zap.Logger) (*SQLiteStore, error) {
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL}
	if path == ":memory:" {
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenMemory}
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open database %s: %w", path, err)
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare database %s: %w", path, err)
	}
	return &SQLiteStore{log: log.Named("sqlite"), conn: conn}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, doc *carousel.Document) (err error) {
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return fmt.Errorf("unable to encode document %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	defer sqlitex.Save(s.conn)(&err)
	err = sqlitex.Execute(s.conn,
		`INSERT INTO documents (id, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, revision = revision + 1, saved_at = excluded.saved_at`,
		&sqlitex.ExecOptions{Args: []any{id, buf.String(), time.Now().UTC().Format(time.RFC3339)}})
	if err != nil {
		return fmt.Errorf("unable to save document %s: %w", id, err)
	}
	s.log.Debug("Document saved", zap.String("id", id), zap.Int("bytes", buf.Len()))
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*carousel.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	var (
		payload string
		found   bool
	)
	err := sqlitex.Execute(s.conn, `SELECT payload FROM documents WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			payload, found = stmt.ColumnText(0), true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load document %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return carousel.Read(strings.NewReader(payload))
}

// Revision returns number of times document was saved.
func (s *SQLiteStore) Revision(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	var rev int64 = -1
	err := sqlitex.Execute(s.conn, `SELECT revision FROM documents WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rev = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	if rev < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rev, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	var ids []string
	err := sqlitex.Execute(s.conn, `SELECT id FROM documents ORDER BY id`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			ids = append(ids, stmt.ColumnText(0))
			return nil
		},
	})
	return ids, err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// FileStore keeps every document in its own JSON file.
type FileStore struct {
	log *zap.Logger
	dir string
}

func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create storage directory: %w", err)
	}
	return &FileStore{log: log.Named("files"), dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, slug.Make(id)+".json")
}

// Save writes document atomically: temporary file is renamed over old one.
func (s *FileStore) Save(ctx context.Context, id string, doc *carousel.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return fmt.Errorf("unable to encode document %s: %w", id, err)
	}
	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("unable to save document %s: %w", id, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to save document %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to save document %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to save document %s: %w", id, err)
	}
	s.log.Debug("Document saved", zap.String("id", id), zap.String("file", s.path(id)))
	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*carousel.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := carousel.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, err
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && filepath.Ext(name) == ".json" {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) Close() error {
	return nil
}
