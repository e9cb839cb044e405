package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/stagewalk/stagewalk/store"
)

var (
	_ store.Store = &pgStore{}
)

// Config holds PostgreSQL connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // disable, require, verify-ca, verify-full
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "stagewalk",
		SSLMode:  "disable",
	}
}

/**
 * pgStore keeps completion markers in PostgreSQL, for work directories
 * shared between hosts where marker files are not enough.
 */
type pgStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL marker store with the given configuration
func NewPostgresStore(config *Config) (store.Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open postgres connection")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Annotatef(err, "failed to ping postgres")
	}

	s := &pgStore{db: db}

	if err := s.initTable(context.Background()); err != nil {
		db.Close()
		return nil, errors.Annotatef(err, "failed to initialize table")
	}

	return s, nil
}

// NewPostgresStoreWithDB creates a new PostgreSQL marker store with an existing database connection
func NewPostgresStoreWithDB(db *sql.DB) (store.Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	s := &pgStore{db: db}

	if err := s.initTable(context.Background()); err != nil {
		return nil, errors.Annotatef(err, "failed to initialize table")
	}

	return s, nil
}

// initTable creates the stage_markers table if it doesn't exist
func (p *pgStore) initTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS stage_markers (
			stage VARCHAR(255) NOT NULL,
			work_dir VARCHAR(1024),
			completed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (stage)
		);
	`

	_, err := p.db.ExecContext(ctx, query)
	if err != nil {
		return errors.Annotatef(err, "failed to create table")
	}

	return nil
}

func (p *pgStore) Set(ctx context.Context, stage string, marker *store.Marker) error {
	completedAt := marker.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	query := `
		INSERT INTO stage_markers (stage, work_dir, completed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (stage)
		DO UPDATE SET work_dir = $2, completed_at = $3
	`

	_, err := p.db.ExecContext(ctx, query, stage, marker.WorkDir, completedAt)
	return errors.Annotatef(err, "failed to set marker for stage %s", stage)
}

func (p *pgStore) Get(ctx context.Context, stage string) (*store.Marker, error) {
	query := `SELECT work_dir, completed_at FROM stage_markers WHERE stage = $1`

	marker := &store.Marker{}
	err := p.db.QueryRowContext(ctx, query, stage).Scan(&marker.WorkDir, &marker.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "failed to get marker for stage %s", stage)
	}
	return marker, nil
}

func (p *pgStore) Remove(ctx context.Context, stage string) error {
	query := `DELETE FROM stage_markers WHERE stage = $1`

	_, err := p.db.ExecContext(ctx, query, stage)
	return errors.Annotatef(err, "failed to remove marker for stage %s", stage)
}

func (p *pgStore) List(ctx context.Context, iterator func(stage string, marker *store.Marker) bool) error {
	query := `SELECT stage, work_dir, completed_at FROM stage_markers ORDER BY stage`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Annotatef(err, "failed to list markers")
	}
	defer rows.Close()

	for rows.Next() {
		var stage string
		marker := &store.Marker{}
		if err := rows.Scan(&stage, &marker.WorkDir, &marker.CompletedAt); err != nil {
			return errors.Annotatef(err, "failed to scan marker row")
		}
		if !iterator(stage, marker) {
			break
		}
	}
	return errors.Trace(rows.Err())
}

// Close closes the underlying database connection
func (p *pgStore) Close() error {
	return p.db.Close()
}
