package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// PostgresStore persists the state record in a single-row-per-instance
// Postgres table, for deployments that already run a database and want the
// cache to survive host rebuilds.
type PostgresStore struct {
	db       *sql.DB
	instance string
	logger   zerolog.Logger
}

// NewPostgres opens a Postgres-backed store and ensures its schema exists.
func NewPostgres(dsn, instance string, logger zerolog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{
		db:       db,
		instance: instance,
		logger:   logger.With().Str("component", "store").Logger(),
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS fuelwatch_state (
			instance_id TEXT PRIMARY KEY,
			version     INT NOT NULL,
			data        JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating state table: %w", err)
	}
	return nil
}

// Load reads the state row for this instance. A missing row yields a fresh
// empty state.
func (s *PostgresStore) Load(ctx context.Context) (*models.PersistedState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM fuelwatch_state WHERE instance_id = $1",
		s.instance,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewPersistedState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	var st models.PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state row: %w", err)
	}
	st.Normalize()

	s.logger.Debug().Str("instance", s.instance).Msg("loaded persisted state")
	return &st, nil
}

// Save upserts the state row for this instance.
func (s *PostgresStore) Save(ctx context.Context, st *models.PersistedState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	query := `
		INSERT INTO fuelwatch_state (instance_id, version, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (instance_id)
		DO UPDATE SET
			version = EXCLUDED.version,
			data = EXCLUDED.data,
			updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, s.instance, st.Version, data); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}

	s.logger.Debug().Str("instance", s.instance).Int("bytes", len(data)).Msg("saved persisted state")
	return nil
}

// Ping checks if the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
