package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// API key scopes. ScopeMCP opens the /mcp endpoint; ScopeAdmin opens the
// admin API for job runs and key management.
const (
	ScopeMCP   = "mcp"
	ScopeAdmin = "admin"
)

// ValidScope reports whether an API key may carry scope.
func ValidScope(scope string) bool {
	return scope == ScopeMCP || scope == ScopeAdmin
}

// APIKey is a bearer credential for the HTTP transport. Only the bcrypt hash
// of the raw key is kept; KeyPrefix is its first characters, used for lookup.
// Revoking a key sets DeletedAt, after which its name may be reused.
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"`
	Scopes     []string   `json:"scopes"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	DeletedAt  *time.Time `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// HasScope reports whether the key grants scope.
func (k *APIKey) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}
