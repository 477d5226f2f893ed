package license

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Register the "sqlite" database/sql driver
)

// Entry is a cached validation result.
type Entry struct {
	Info        Info      `json:"info"`
	ValidatedAt time.Time `json:"validatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Store persists at most one cached Entry.
type Store interface {
	// Load returns the cached entry, or nil when there is none.
	Load(ctx context.Context) (*Entry, error)
	Save(ctx context.Context, e Entry) error
	Delete(ctx context.Context) error
}

// MemoryStore keeps the entry in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	entry *Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry == nil {
		return nil, nil
	}
	e := *m.entry
	return &e, nil
}

func (m *MemoryStore) Save(_ context.Context, e Entry) error {
	m.mu.Lock()
	m.entry = &e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	m.entry = nil
	m.mu.Unlock()
	return nil
}

// SQLiteStore keeps the entry in a single-row SQLite table, so a validated
// license survives restarts until its TTL runs out.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS license_cache (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	info         TEXT    NOT NULL,
	validated_at INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL
);`

// OpenSQLiteStore opens (creating if needed) the cache database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open license cache: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create license cache table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Entry, error) {
	var (
		info                 string
		validated, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT info, validated_at, expires_at FROM license_cache WHERE id = 1").
		Scan(&info, &validated, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read license cache: %w", err)
	}

	e := &Entry{
		ValidatedAt: time.UnixMilli(validated),
		ExpiresAt:   time.UnixMilli(expiresAt),
	}
	if err := json.Unmarshal([]byte(info), &e.Info); err != nil {
		return nil, fmt.Errorf("failed to decode license cache: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) Save(ctx context.Context, e Entry) error {
	info, err := json.Marshal(e.Info)
	if err != nil {
		return fmt.Errorf("failed to encode license cache: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO license_cache (id, info, validated_at, expires_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET info = excluded.info,
		   validated_at = excluded.validated_at, expires_at = excluded.expires_at`,
		string(info), e.ValidatedAt.UnixMilli(), e.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write license cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM license_cache"); err != nil {
		return fmt.Errorf("failed to clear license cache: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
