package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vigil/internal/logger"

	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"
)

// Store persists the singleton agent record in SQLite. One row, written
// transactionally on every mutation: at this call rate durability beats
// batching.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state store path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS agent_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

// Load reads, migrates and validates the persisted record. A missing row is
// first-run: the caller gets a fresh default record which is not written back
// until the first confirmed mutation.
func (s *Store) Load(ctx context.Context, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM agent_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Infof("state: no persisted record at %s, starting fresh", s.path)
		return NewRecord(now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("state load: %w", err)
	}
	return decodePayload([]byte(payload))
}

func decodePayload(payload []byte) (*Record, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrCorruptState)
	}
	if !gjson.GetBytes(payload, "schema_version").Exists() {
		return nil, fmt.Errorf("%w: payload has no schema_version", ErrCorruptState)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	migrated, err := Migrate(raw)
	if err != nil {
		return nil, err
	}
	if err := validateRecord(migrated); err != nil {
		return nil, err
	}
	return decodeRecord(migrated)
}

// Save writes the record. The caller must have applied the mutation only
// after its external action was confirmed.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("state save: nil record")
	}
	payload, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("state save: encode: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO agent_state (id, schema_version, payload, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version,
			payload = excluded.payload, updated_at = excluded.updated_at`,
		rec.SchemaVersion, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("state save: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
