package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postgresRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewPostgresRepository(ctx, PostgresConfig{DSN: dsn, MaxConns: 2, MinConns: 1, MaxLifetime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresRepositoryRoundTrip(t *testing.T) {
	repo := postgresRepository(t)
	ctx := context.Background()

	id := "generated-test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = repo.pool.Exec(context.Background(), `DELETE FROM generated_tests WHERE id = $1`, id)
	})

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, sampleTest(id)))
	// upsert must not add a second row
	require.NoError(t, repo.Save(ctx, sampleTest(id)))

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sampleTest(id), got)

	list, err := repo.List(ctx)
	require.NoError(t, err)

	var found bool
	for _, s := range list {
		if s.ID == id {
			found = true
			assert.Equal(t, 1, s.Questions)
			assert.Equal(t, 1, s.Groups)
		}
	}
	assert.True(t, found)
}

func TestPostgresRepositoryGetNotFound(t *testing.T) {
	repo := postgresRepository(t)

	_, err := repo.Get(context.Background(), "generated-test-missing-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_generated_tests.sql", names[0])
}
