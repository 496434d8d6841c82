package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/response"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/store"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

var validRunStates = map[string]bool{
	models.JobRunSucceeded:      true,
	models.JobRunFailedTerminal: true,
	models.JobRunFailedUnknown:  true,
	models.JobRunTimedOut:       true,
	models.JobRunErrored:        true,
}

// JobRunReader is the audit log as seen by the admin API.
type JobRunReader interface {
	ListJobRuns(ctx context.Context, filter store.JobRunFilter) ([]*models.JobRun, int, error)
	GetJobRun(ctx context.Context, id uuid.UUID) (*models.JobRun, error)
}

// NewListJobRunsHandler serves GET /api/v1/admin/job-runs.
// Query: kind, state, since (any common date format), page, limit.
func NewListJobRunsHandler(runs JobRunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.JobRunFilter{
			Kind:  q.Get("kind"),
			State: q.Get("state"),
			Page:  1,
			Limit: defaultRunsLimit,
		}

		if filter.State != "" && !validRunStates[filter.State] {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest,
				"state must be one of succeeded, failed_terminal, failed_unknown, timed_out, errored", nil)
			return
		}

		if v := q.Get("since"); v != "" {
			since, err := dateparse.ParseIn(v, time.UTC)
			if err != nil {
				response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "since must be a valid date", nil)
				return
			}
			filter.Since = since
		}

		if v := q.Get("page"); v != "" {
			page, err := strconv.Atoi(v)
			if err != nil || page < 1 {
				response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "page must be a positive integer", nil)
				return
			}
			filter.Page = page
		}
		if v := q.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 1 {
				response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "limit must be a positive integer", nil)
				return
			}
			filter.Limit = min(limit, maxRunsLimit)
		}

		list, total, err := runs.ListJobRuns(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				"Failed to list job runs", nil)
			return
		}

		response.Collection(w, list, response.NewPaginationMeta(filter.Page, filter.Limit, total))
	}
}

// NewGetJobRunHandler serves GET /api/v1/admin/job-runs/{runID}.
func NewGetJobRunHandler(runs JobRunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "runID must be a UUID", nil)
			return
		}

		run, err := runs.GetJobRun(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, response.CodeNotFound, "Job run not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				"Failed to get job run", nil)
			return
		}

		response.JSON(w, run)
	}
}
