// Package logstore records dashboard interactions (analyze and mitigate
// calls with their outcomes) behind a storage interface with Postgres and
// in-memory implementations.
package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// Interaction kinds.
const (
	KindAnalyze  = "analyze"
	KindMitigate = "mitigate"
)

// Entry is one recorded interaction.
type Entry struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	TopLabel  string    `json:"top_label"`
	Severity  string    `json:"severity"`
	OK        bool      `json:"ok"`
	CreatedAt time.Time `json:"created_at"`
}

// InteractionDB defines the interface for interaction log storage.
type InteractionDB interface {
	// Insert records one interaction.
	Insert(ctx context.Context, e Entry) error

	// Recent returns up to limit entries starting at offset, newest first.
	Recent(ctx context.Context, limit, offset int) ([]Entry, error)

	// Count returns the number of recorded interactions.
	Count(ctx context.Context) (int, error)

	// Clear removes all recorded interactions.
	Clear(ctx context.Context) error

	// Close closes the underlying storage.
	Close() error
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// PostgresInteractionDB implements InteractionDB for PostgreSQL.
type PostgresInteractionDB struct {
	db *sql.DB
}

// NewPostgresInteractionDB opens a Postgres-backed interaction log,
// creating the table if needed.
func NewPostgresInteractionDB(config DatabaseConfig) (*PostgresInteractionDB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTableIfNotExists(db); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PostgresInteractionDB{db: db}, nil
}

func createTableIfNotExists(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS dashboard_interactions (
		id SERIAL PRIMARY KEY,
		session_id VARCHAR(64) NOT NULL,
		kind VARCHAR(20) NOT NULL,
		input_text TEXT NOT NULL,
		top_label VARCHAR(100),
		severity VARCHAR(20),
		ok BOOLEAN NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_dashboard_interactions_session ON dashboard_interactions(session_id);
	CREATE INDEX IF NOT EXISTS idx_dashboard_interactions_created_at ON dashboard_interactions(created_at);
	`

	_, err := db.Exec(query)
	return err
}

// Insert records one interaction.
func (p *PostgresInteractionDB) Insert(ctx context.Context, e Entry) error {
	query := `
	INSERT INTO dashboard_interactions (session_id, kind, input_text, top_label, severity, ok, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := p.db.ExecContext(ctx, query, e.SessionID, e.Kind, e.Text, e.TopLabel, e.Severity, e.OK)
	return err
}

// Recent returns up to limit entries starting at offset, newest first.
func (p *PostgresInteractionDB) Recent(ctx context.Context, limit, offset int) ([]Entry, error) {
	query := `
	SELECT id, session_id, kind, input_text, top_label, severity, ok, created_at
	FROM dashboard_interactions
	ORDER BY id DESC
	LIMIT $1 OFFSET $2
	`

	rows, err := p.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Text, &e.TopLabel, &e.Severity, &e.OK, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded interactions.
func (p *PostgresInteractionDB) Count(ctx context.Context) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboard_interactions`).Scan(&count)
	return count, err
}

// Clear removes all recorded interactions.
func (p *PostgresInteractionDB) Clear(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM dashboard_interactions`)
	return err
}

// Close closes the database connection.
func (p *PostgresInteractionDB) Close() error {
	return p.db.Close()
}

// InMemoryInteractionDB implements InteractionDB with in-memory storage,
// the default when no database is configured.
type InMemoryInteractionDB struct {
	mutex   sync.RWMutex
	entries []Entry
	nextID  int
}

// NewInMemoryInteractionDB creates an empty in-memory interaction log.
func NewInMemoryInteractionDB() *InMemoryInteractionDB {
	return &InMemoryInteractionDB{nextID: 1}
}

// Insert records one interaction.
func (m *InMemoryInteractionDB) Insert(ctx context.Context, e Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	e.ID = m.nextID
	m.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, e)
	return nil
}

// Recent returns up to limit entries starting at offset, newest first.
func (m *InMemoryInteractionDB) Recent(ctx context.Context, limit, offset int) ([]Entry, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]Entry, 0, limit)
	for i := len(m.entries) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.entries[i])
	}
	return result, nil
}

// Count returns the number of recorded interactions.
func (m *InMemoryInteractionDB) Count(ctx context.Context) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries), nil
}

// Clear removes all recorded interactions.
func (m *InMemoryInteractionDB) Clear(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = nil
	return nil
}

// Close is a no-op for in-memory storage.
func (m *InMemoryInteractionDB) Close() error {
	return nil
}
