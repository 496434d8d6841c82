// Package api exposes the MCP server over streamable HTTP next to a small
// admin API.
package api

import (
	"net/http"

	mw "github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/middleware"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	// MCP serves the streamable HTTP transport, GET/POST/DELETE on one path.
	MCP http.Handler

	ListJobRuns      http.HandlerFunc
	GetJobRun        http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(mw.ScopeMCP))

			var mcp http.Handler = orNotImplemented(nil)
			if deps.MCP != nil {
				mcp = deps.MCP
			}
			r.Handle("/mcp", mcp)
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(mw.ScopeAdmin))

			r.Get("/api/v1/admin/job-runs", orNotImplemented(deps.ListJobRuns))
			r.Get("/api/v1/admin/job-runs/{runID}", orNotImplemented(deps.GetJobRun))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, response.CodeNotImplemented, "Endpoint not yet implemented", nil)
	}
}
