package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vitrine/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Repository is the profile document store contract. The profile is a
// singleton document: Get creates it from defaults when absent, Merge
// folds a sparse field set into it. Implementations are safe for
// concurrent use but offer no conflict detection; concurrent merges are
// last-write-wins.
type Repository interface {
	Get(ctx context.Context) (*models.Profile, error)
	Merge(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error)
}

// profileRowID pins the singleton document to a fixed row.
const profileRowID = 1

// Store wraps a *sql.DB holding the profile document as a single JSON
// row. It is safe for concurrent use because the underlying *sql.DB is
// concurrency-safe and Merge runs inside a transaction.
type Store struct {
	conn   *sql.DB
	logger *logrus.Logger

	getStmt *sql.Stmt
}

// NewStore opens (or creates) a SQLite database at the provided path and
// ensures the profile table exists. It applies the same lightweight
// performance pragmas used elsewhere in the stack (WAL, cache sizing).
// Caller should Close() it when finished.
func NewStore(dbPath string, maxConns int) (*Store, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works better with few connections
	if maxConns < 1 {
		maxConns = 1
	}
	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Profile store initialized")
	return s, nil
}

// createTables is idempotent and safe to call multiple times.
func (s *Store) createTables() error {
	table := `
	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = ` + fmt.Sprint(profileRowID) + `),
		doc TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.conn.Exec(table); err != nil {
		return fmt.Errorf("failed to create profile table: %w", err)
	}
	return nil
}

func (s *Store) prepareStatements() error {
	var err error
	s.getStmt, err = s.conn.Prepare("SELECT doc FROM profile WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}
	return nil
}

// Get returns the singleton profile document. If none exists it is
// created from DefaultProfile and returned, so the first-ever read
// writes to the store but every read returns the same value.
func (s *Store) Get(ctx context.Context) (*models.Profile, error) {
	var doc string
	err := s.getStmt.QueryRowContext(ctx, profileRowID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return s.createDefault(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile, err := decodeProfile(doc)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// createDefault inserts the default document. A concurrent insert losing
// the race is fine: we re-read and return whatever won.
func (s *Store) createDefault(ctx context.Context) (*models.Profile, error) {
	profile := models.DefaultProfile()
	doc, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode default profile: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO profile (id, doc) VALUES (?, ?)", profileRowID, string(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to create default profile: %w", err)
	}

	s.logger.Info("Created default profile document")

	var stored string
	if err := s.getStmt.QueryRowContext(ctx, profileRowID).Scan(&stored); err != nil {
		return nil, fmt.Errorf("failed to re-read profile: %w", err)
	}
	return decodeProfile(stored)
}

// Merge folds the supplied fields into the stored document inside one
// transaction and returns the resulting profile. Only fields present in
// the patch change; the write is last-write-wins with respect to any
// concurrent merge.
func (s *Store) Merge(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin merge: %w", err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, "SELECT doc FROM profile WHERE id = ?", profileRowID).Scan(&doc)

	var profile *models.Profile
	switch {
	case errors.Is(err, sql.ErrNoRows):
		profile = models.DefaultProfile()
	case err != nil:
		return nil, fmt.Errorf("failed to read profile for merge: %w", err)
	default:
		profile, err = decodeProfile(doc)
		if err != nil {
			return nil, err
		}
	}

	patch.Apply(profile)

	merged, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged profile: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profile (id, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		profileRowID, string(merged))
	if err != nil {
		return nil, fmt.Errorf("failed to write merged profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit merge: %w", err)
	}

	return profile, nil
}

// Ping verifies store connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close releases the prepared statements and the connection pool.
func (s *Store) Close() error {
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	return s.conn.Close()
}

func decodeProfile(doc string) (*models.Profile, error) {
	var profile models.Profile
	if err := json.Unmarshal([]byte(doc), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}
	return &profile, nil
}
