package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/asyncjob"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/store"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresStore is what the poller records through.
var _ asyncjob.Recorder = (*store.PostgresStore)(nil)

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("genesys_mcp_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.RunMigrations(connStr))
	// A second run finds nothing to do.
	require.NoError(t, store.RunMigrations(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newKey(name, prefix string) *models.APIKey {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   "bcrypt-hash-" + name,
		KeyPrefix: prefix,
		Scopes:    []string{"mcp"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newRun(kind, state string, completedAt time.Time) *models.JobRun {
	return &models.JobRun{
		ID:           uuid.New(),
		Kind:         kind,
		RemoteJobID:  "job-" + uuid.NewString()[:8],
		Subject:      "queue-1",
		State:        state,
		RemoteStatus: "FULFILLED",
		Attempts:     3,
		SubmittedAt:  completedAt.Add(-9 * time.Second),
		CompletedAt:  completedAt,
	}
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("test-key", "gcm_abcd")
	key.Scopes = []string{"mcp", "admin"}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	keys, err := s.GetAPIKeyByPrefix(ctx, "gcm_abcd")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, "test-key", keys[0].Name)
	assert.Equal(t, []string{"mcp", "admin"}, keys[0].Scopes)
	assert.Nil(t, keys[0].LastUsedAt)
}

func TestAPIKey_GetByPrefixNoMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	keys, err := s.GetAPIKeyByPrefix(context.Background(), "gcm_none")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAPIKey_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for range 3 {
		suffix := uuid.NewString()[:4]
		require.NoError(t, s.CreateAPIKey(ctx, newKey("key-"+suffix, "gcm_"+suffix)))
	}

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestAPIKey_Revoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("revoke-me", "gcm_revk")
	require.NoError(t, s.CreateAPIKey(ctx, key))

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = s.GetAPIKeyByPrefix(ctx, "gcm_revk")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// The name is free again once revoked.
	require.NoError(t, s.CreateAPIKey(ctx, newKey("revoke-me", "gcm_new1")))
}

func TestAPIKey_RevokeNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.RevokeAPIKey(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAPIKey_UpdateLastUsed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("usage-key", "gcm_used")
	require.NoError(t, s.CreateAPIKey(ctx, key))

	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))

	keys, err := s.GetAPIKeyByPrefix(ctx, "gcm_used")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

func TestAPIKey_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("dup1", "gcm_dup1")
	require.NoError(t, s.CreateAPIKey(ctx, key))

	key2 := newKey("dup2", "gcm_dup2")
	key2.ID = key.ID
	assert.ErrorIs(t, s.CreateAPIKey(ctx, key2), store.ErrDuplicateKey)
}

func TestAPIKey_DuplicateActiveName(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	require.NoError(t, s.CreateAPIKey(ctx, newKey("claude-desktop", "gcm_one1")))
	err := s.CreateAPIKey(ctx, newKey("claude-desktop", "gcm_two2"))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Job Run Tests ---

func TestJobRun_RecordAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	completed := time.Now().UTC().Truncate(time.Microsecond)
	run := newRun("conversation_details", models.JobRunFailedTerminal, completed)
	msg := "analytics job job-1 was cancelled"
	run.ErrorMessage = &msg
	run.RemoteStatus = "CANCELLED"

	require.NoError(t, s.RecordJobRun(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetJobRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Kind, got.Kind)
	assert.Equal(t, run.RemoteJobID, got.RemoteJobID)
	assert.Equal(t, "queue-1", got.Subject)
	assert.Equal(t, models.JobRunFailedTerminal, got.State)
	assert.Equal(t, "CANCELLED", got.RemoteStatus)
	assert.Equal(t, 3, got.Attempts)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)
	assert.True(t, completed.Equal(got.CompletedAt))
}

func TestJobRun_RecordAssignsID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	run := newRun("oauth_client_usage", models.JobRunSucceeded, time.Now().UTC())
	run.ID = uuid.Nil
	require.NoError(t, s.RecordJobRun(context.Background(), run))
	assert.NotEqual(t, uuid.Nil, run.ID)
}

func TestJobRun_RejectsUnknownState(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	run := newRun("conversation_details", "pending", time.Now().UTC())
	assert.Error(t, s.RecordJobRun(context.Background(), run))
}

func TestJobRun_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetJobRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobRun_ListFiltersAndPages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := range 5 {
		require.NoError(t, s.RecordJobRun(ctx,
			newRun("conversation_details", models.JobRunSucceeded, base.Add(-time.Duration(i)*time.Minute))))
	}
	require.NoError(t, s.RecordJobRun(ctx, newRun("conversation_details", models.JobRunTimedOut, base.Add(-time.Hour))))
	require.NoError(t, s.RecordJobRun(ctx, newRun("oauth_client_usage", models.JobRunSucceeded, base)))

	runs, total, err := s.ListJobRuns(ctx, store.JobRunFilter{})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, runs, 7)
	for i := 1; i < len(runs); i++ {
		assert.False(t, runs[i].CompletedAt.After(runs[i-1].CompletedAt), "newest first")
	}

	runs, total, err = s.ListJobRuns(ctx, store.JobRunFilter{Kind: "conversation_details", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, runs, 2)

	runs, total, err = s.ListJobRuns(ctx, store.JobRunFilter{State: models.JobRunTimedOut})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, runs, 1)
	assert.Equal(t, models.JobRunTimedOut, runs[0].State)

	runs, total, err = s.ListJobRuns(ctx, store.JobRunFilter{Since: base.Add(-90 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, runs, 3)
}

func TestJobRun_ListEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	runs, total, err := s.ListJobRuns(context.Background(), store.JobRunFilter{Kind: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	assert.NoError(t, s.Ping(context.Background()))
}
