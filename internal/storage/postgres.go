package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresRepository connects to PostgreSQL and applies pending migrations
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Count returns the number of archived generated tests
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generated_tests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count generated tests: %w", err)
	}
	return n, nil
}

// Save upserts a generated test
func (r *PostgresRepository) Save(ctx context.Context, test *models.Topic) error {
	body, err := json.Marshal(test)
	if err != nil {
		return fmt.Errorf("failed to marshal test: %w", err)
	}

	query := `
		INSERT INTO generated_tests (id, topic, description, question_count, group_count, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET topic = EXCLUDED.topic,
		    description = EXCLUDED.description,
		    question_count = EXCLUDED.question_count,
		    group_count = EXCLUDED.group_count,
		    body = EXCLUDED.body,
		    created_at = EXCLUDED.created_at
	`

	_, err = r.pool.Exec(ctx, query,
		test.ID,
		test.Topic,
		test.Description,
		test.QuestionsCount(),
		test.GroupsCount(),
		body,
	)
	if err != nil {
		return fmt.Errorf("failed to save generated test: %w", err)
	}

	return nil
}

// Get retrieves a generated test by id
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Topic, error) {
	var body []byte
	err := r.pool.QueryRow(ctx, `SELECT body FROM generated_tests WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generated test: %w", err)
	}

	var test models.Topic
	if err := json.Unmarshal(body, &test); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generated test: %w", err)
	}
	return &test, nil
}

// List returns summaries of all archived tests, oldest first
func (r *PostgresRepository) List(ctx context.Context) ([]models.GeneratedTestSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, topic, description, question_count, group_count, created_at
		FROM generated_tests
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated tests: %w", err)
	}
	defer rows.Close()

	var result []models.GeneratedTestSummary
	for rows.Next() {
		var s models.GeneratedTestSummary
		if err := rows.Scan(&s.ID, &s.Topic, &s.Description, &s.Questions, &s.Groups, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generated test: %w", err)
		}
		result = append(result, s)
	}

	return result, rows.Err()
}
