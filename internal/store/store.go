package store

import (
	"context"
	"errors"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	RecordJobRun(ctx context.Context, run *models.JobRun) error
	ListJobRuns(ctx context.Context, filter JobRunFilter) ([]*models.JobRun, int, error)
	GetJobRun(ctx context.Context, id uuid.UUID) (*models.JobRun, error)
}

type JobRunFilter struct {
	Kind  string
	State string
	Since time.Time
	Page  int
	Limit int
}
