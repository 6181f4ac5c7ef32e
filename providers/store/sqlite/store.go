// Package sqlite stores protected containers in a SQLite database.
//
// Each container is encoded with an nqcrypt.Codec (binary by default) and
// kept as a BLOB next to a few header columns for listing.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hengadev/nqcrypt"
	"github.com/hengadev/nqcrypt/internal/config"
)

const storeName = "sqlite"

// Store implements nqcrypt.ContainerStore.
type Store struct {
	db     *sql.DB
	codec  nqcrypt.Codec
	ownsDB bool
}

var _ nqcrypt.ContainerStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithCodec selects the container encoding. Containers written with one
// codec cannot be read back with another.
func WithCodec(codec nqcrypt.Codec) Option {
	return func(s *Store) error {
		if codec == nil {
			return fmt.Errorf("%w: codec cannot be nil", nqcrypt.ErrInvalidConfiguration)
		}
		s.codec = codec
		return nil
	}
}

// Open opens or creates the database file at path and prepares the schema.
// The parent directory is created if needed.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := config.EnsureWritableDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %w", nqcrypt.ErrInvalidConfiguration, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to open database at '%s': %w", path, err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("database connection test failed for '%s': %w", path, err))
	}

	s, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New wraps an open database. The caller keeps ownership of db.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database cannot be nil", nqcrypt.ErrInvalidConfiguration)
	}

	s := &Store{db: db, codec: nqcrypt.BinaryCodec{}}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS containers (
			id TEXT PRIMARY KEY,
			codec TEXT NOT NULL,
			feedback_mode TEXT NOT NULL,
			data_size INTEGER NOT NULL,
			field_count INTEGER NOT NULL,
			payload BLOB NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_containers_created_at ON containers(created_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to create schema: %w", err))
	}
	return nil
}

// Close closes the database if the Store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, c *nqcrypt.Container) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: container is nil", nqcrypt.ErrInvalidContainer)
	}
	payload, err := s.codec.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode container: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO containers (id, codec, feedback_mode, data_size, field_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, s.codec.Name(), c.Header.FeedbackMode.String(), int64(c.Header.DataSize),
		len(c.Header.FieldNames), payload, time.Now().UTC())
	if err != nil {
		return "", nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to insert container: %w", err))
	}

	return id, nil
}

func (s *Store) Load(ctx context.Context, id string) (*nqcrypt.Container, error) {
	var codecName string
	var payload []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT codec, payload FROM containers WHERE id = ?
	`, id).Scan(&codecName, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nqcrypt.NewNotFoundError("container", id)
	}
	if err != nil {
		return nil, nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to load container '%s': %w", id, err))
	}

	codec, err := nqcrypt.CodecByName(codecName)
	if err != nil {
		return nil, fmt.Errorf("container '%s': %w", id, err)
	}

	c, err := codec.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("decode container '%s': %w", id, err)
	}
	return c, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM containers WHERE id = ?`, id)
	if err != nil {
		return nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to delete container '%s': %w", id, err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nqcrypt.NewStoreUnavailableError(storeName, err)
	}
	if n == 0 {
		return nqcrypt.NewNotFoundError("container", id)
	}
	return nil
}

// Entry summarises a stored container without decoding it.
type Entry struct {
	ID           string
	FeedbackMode string
	DataSize     uint64
	FieldCount   int
	CreatedAt    time.Time
}

// List returns every stored container, oldest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, feedback_mode, data_size, field_count, created_at
		FROM containers
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, nqcrypt.NewStoreUnavailableError(storeName, fmt.Errorf("failed to list containers: %w", err))
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var size int64
		if err := rows.Scan(&e.ID, &e.FeedbackMode, &size, &e.FieldCount, &e.CreatedAt); err != nil {
			return nil, nqcrypt.NewStoreUnavailableError(storeName, err)
		}
		e.DataSize = uint64(size)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nqcrypt.NewStoreUnavailableError(storeName, err)
	}
	return entries, nil
}
