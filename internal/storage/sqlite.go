package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements EmbeddingStore using SQLite. Content keys are stored
// bit-cast to int64 since SQLite integers are signed.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS image_embeddings (
		model TEXT NOT NULL,
		content_key INTEGER NOT NULL,
		dimensions INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (model, content_key)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get returns the cached embedding for key under model, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, model string, key uint64) ([]float32, error) {
	var dims int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions, vector FROM image_embeddings WHERE model = ? AND content_key = ?`,
		model, int64(key),
	).Scan(&dims, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(blob) != dims*4 {
		return nil, fmt.Errorf("corrupt embedding for key %d: %d bytes for %d dimensions", key, len(blob), dims)
	}
	return bytesToFloat32Slice(blob), nil
}

// Put stores the embedding for key under model, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, model string, key uint64, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO image_embeddings (model, content_key, dimensions, vector, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		model, int64(key), len(vector), float32SliceToBytes(vector), time.Now(),
	)
	return err
}

// Count returns the number of cached embeddings across all models.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image_embeddings`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func float32SliceToBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
