package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	mw "github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/middleware"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/response"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/store"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// KeyManager creates, lists and revokes API keys.
type KeyManager interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

type createdKey struct {
	*models.APIKey
	Key string `json:"key"`
}

// NewCreateKeyHandler serves POST /api/v1/admin/keys. The raw key appears in
// this response only.
func NewCreateKeyHandler(keys KeyManager, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name   string   `json:"name"`
			Scopes []string `json:"scopes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "Invalid JSON body", nil)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "name is required", nil)
			return
		}
		if len(req.Scopes) == 0 {
			req.Scopes = []string{mw.ScopeMCP}
		}
		for _, s := range req.Scopes {
			if !mw.ValidScope(s) {
				response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest,
					"scopes may only contain mcp and admin", nil)
				return
			}
		}

		raw, key, err := mw.IssueKey(req.Name, req.Scopes, now())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "Failed to create API key", nil)
			return
		}

		if err := keys.CreateAPIKey(r.Context(), key); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, response.CodeConflict,
					"An active API key with this name already exists", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "Failed to create API key", nil)
			return
		}

		response.Created(w, createdKey{APIKey: key, Key: raw})
	}
}

// NewListKeysHandler serves GET /api/v1/admin/keys.
func NewListKeysHandler(keys KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := keys.ListAPIKeys(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "Failed to list API keys", nil)
			return
		}
		response.JSON(w, list)
	}
}

// NewRevokeKeyHandler serves DELETE /api/v1/admin/keys/{keyID}. A key cannot
// revoke itself.
func NewRevokeKeyHandler(keys KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "keyID must be a UUID", nil)
			return
		}

		if self, ok := mw.GetKeyID(r); ok && self == id {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest,
				"An API key cannot revoke itself", nil)
			return
		}

		err = keys.RevokeAPIKey(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, response.CodeNotFound, "API key not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "Failed to revoke API key", nil)
			return
		}

		response.NoContent(w)
	}
}
