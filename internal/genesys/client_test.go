package genesys

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func platformServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	return NewWithHTTPClient(baseURL, &http.Client{
		Timeout:   5 * time.Second,
		Transport: newRetryTransport(http.DefaultTransport, 2, time.Millisecond, nil),
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// --- Routing ---

func TestSearchQueues(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v2/routing/queues", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Support*", q.Get("name"))
		assert.Equal(t, "2", q.Get("pageNumber"))
		assert.Equal(t, "50", q.Get("pageSize"))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"entities": []map[string]any{
				{"id": "q1", "name": "Support EMEA", "memberCount": 4},
				{"id": "q2", "name": "Support US", "description": "US hours"},
			},
			"pageNumber": 2, "pageSize": 50, "pageCount": 3, "total": 102,
		})
	})

	res, err := newTestClient(t, ts.URL).SearchQueues(context.Background(), "Support*", 2, 50)
	require.NoError(t, err)

	require.Len(t, res.Entities, 2)
	assert.Equal(t, "Support EMEA", res.Entities[0].Name)
	require.NotNil(t, res.Entities[0].MemberCount)
	assert.Equal(t, 4, *res.Entities[0].MemberCount)
	assert.Nil(t, res.Entities[1].MemberCount)
	assert.Equal(t, 102, *res.Total)
	assert.Equal(t, 3, *res.PageCount)
}

// --- Analytics ---

func TestSubmitConversationDetailsJob(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/analytics/conversations/details/jobs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body ConversationJobQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-01-01T00:00:00.000Z/2025-01-02T00:00:00.000Z", body.Interval)
		require.Len(t, body.SegmentFilters, 1)
		assert.Equal(t, "queueId", body.SegmentFilters[0].Predicates[0].Dimension)

		writeJSON(t, w, http.StatusAccepted, map[string]string{"jobId": "job-123"})
	})

	sub, err := newTestClient(t, ts.URL).SubmitConversationDetailsJob(context.Background(), ConversationJobQuery{
		Interval: "2025-01-01T00:00:00.000Z/2025-01-02T00:00:00.000Z",
		SegmentFilters: []SegmentFilter{{
			Type:       "or",
			Predicates: []Predicate{{Dimension: "queueId", Value: "q1"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "job-123", sub.JobID)
}

func TestGetConversationDetailsJobResults_Cursor(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/analytics/conversations/details/jobs/job-1/results", r.URL.Path)
		if r.URL.Query().Get("cursor") == "" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"conversations": []map[string]any{{"conversationId": "c1"}},
				"cursor":        "next",
			})
			return
		}
		assert.Equal(t, "next", r.URL.Query().Get("cursor"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"conversations": []map[string]any{{"conversationId": "c2"}},
		})
	})
	c := newTestClient(t, ts.URL)

	first, err := c.GetConversationDetailsJobResults(context.Background(), "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, "next", first.Cursor)

	second, err := c.GetConversationDetailsJobResults(context.Background(), "job-1", first.Cursor)
	require.NoError(t, err)
	assert.Empty(t, second.Cursor)
	assert.Equal(t, "c2", second.Conversations[0].ConversationID)
}

func TestGetConversationDetails_JoinsIDs(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/analytics/conversations/details", r.URL.Path)
		assert.Equal(t, "c1,c2", r.URL.Query().Get("id"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"conversations": []map[string]any{
				{"conversationId": "c1", "mediaStatsMinConversationMos": 4.12,
					"conversationStart": "2025-01-01T10:00:00Z", "conversationEnd": "2025-01-01T10:05:00Z"},
			},
		})
	})

	res, err := newTestClient(t, ts.URL).GetConversationDetails(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, res.Conversations, 1)
	assert.InDelta(t, 4.12, *res.Conversations[0].MediaStatsMinConversationMos, 1e-9)
	assert.Equal(t, 5*time.Minute, res.Conversations[0].ConversationEnd.Sub(*res.Conversations[0].ConversationStart))
}

// --- OAuth / Authorization ---

func TestOAuthClientUsageEndpoints(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v2/oauth/clients/client-1/usage/query":
			var body UsageQuery
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"Requests"}, body.Metrics)
			writeJSON(t, w, http.StatusAccepted, map[string]string{"executionId": "exec-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v2/oauth/clients/client-1/usage/query/results/exec-1":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"queryStatus": "Complete",
				"results":     []map[string]any{{"httpMethod": "GET", "templateUri": "api/v2/users", "requests": 7}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, ts.URL)

	exec, err := c.SubmitOAuthClientUsageQuery(context.Background(), "client-1", UsageQuery{
		Interval: "a/b", Metrics: []string{"Requests"}, GroupBy: []string{"TemplateUri", "HttpMethod"},
	})
	require.NoError(t, err)
	assert.Equal(t, "exec-1", exec.ExecutionID)

	res, err := c.GetOAuthClientUsageQueryResult(context.Background(), "exec-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Complete", res.QueryStatus)
	assert.Equal(t, 7, *res.Results[0].Requests)
}

func TestListRoles(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/authorization/roles", r.URL.Path)
		assert.Equal(t, []string{"r1", "r2"}, r.URL.Query()["id"])
		assert.Equal(t, "2", r.URL.Query().Get("pageSize"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"entities": []map[string]string{{"id": "r1", "name": "Admin"}, {"id": "r2", "name": "Reader"}},
		})
	})

	roles, err := newTestClient(t, ts.URL).ListRoles(context.Background(), []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, []Role{{ID: "r1", Name: "Admin"}, {ID: "r2", Name: "Reader"}}, roles)
}

func TestListRoles_NoIDsSkipsRequest(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	roles, err := newTestClient(t, ts.URL).ListRoles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

// --- errors ---

func TestAPIError_Classification(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		unauthorised bool
		missingPerm  bool
		notFound     bool
	}{
		{"401", 401, `{"message":"bad token","code":"bad.credentials","status":401}`, true, false, false},
		{"403 missing permission", 403, `{"message":"Missing any permissions","code":"missing.any.permissions","status":403}`, true, true, false},
		{"403 other", 403, `{"message":"forbidden","code":"not.authorized","status":403}`, true, false, false},
		{"404", 404, `{"message":"Conversation not found","code":"not.found","status":404}`, false, false, true},
		{"400 plain text", 400, `bad request`, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := newTestClient(t, ts.URL).GetConversationMetrics(context.Background(), "c1")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.unauthorised, IsUnauthorised(err))
			assert.Equal(t, tt.missingPerm, IsMissingPermissions(err))
			assert.Equal(t, tt.notFound, IsNotFound(err))
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "Conversation not found"}
	assert.Equal(t, "Conversation not found (status 404)", err.Error())
	assert.Equal(t, "request failed with status 500", (&APIError{StatusCode: 500}).Error())
}

func TestClassifiers_IgnoreOtherErrors(t *testing.T) {
	err := errors.New("boom")
	assert.False(t, IsUnauthorised(err))
	assert.False(t, IsMissingPermissions(err))
	assert.False(t, IsNotFound(err))
}

func TestUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url).ListOAuthClients(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestCancelledContextPassedThrough(t *testing.T) {
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"entities": []any{}})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, ts.URL).ListDivisions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- retries ---

func TestRetry_ServerErrorThenSuccess(t *testing.T) {
	var calls atomic.Int32
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var body UsageQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a/b", body.Interval, "body must be replayed on retry")
		writeJSON(t, w, http.StatusAccepted, map[string]string{"executionId": "exec-9"})
	})

	exec, err := newTestClient(t, ts.URL).SubmitOAuthClientUsageQuery(context.Background(), "c", UsageQuery{Interval: "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "exec-9", exec.ExecutionID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetry_GivesUpWithLastResponse(t *testing.T) {
	var calls atomic.Int32
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"message":"Rate limit exceeded","status":429}`)
	})

	_, err := newTestClient(t, ts.URL).ListOAuthClients(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Rate limit exceeded", apiErr.Message)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestRetry_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := platformServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := newTestClient(t, ts.URL).ListOAuthClients(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryDelay_Bounded(t *testing.T) {
	rt := newRetryTransport(nil, 3, 100*time.Millisecond, nil)
	for attempt := 1; attempt <= 10; attempt++ {
		d := rt.delay(attempt)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, defaultMaxDelay)
	}
}

// --- OAuth client credentials ---

func TestNew_FetchesAndSendsBearerToken(t *testing.T) {
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token": "tok-abc", "token_type": "bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/api/v2/oauth/clients", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"entities": []map[string]any{{"id": "c1", "name": "Integration", "roleIds": []string{"r1"}}},
		})
	})
	ts := platformServer(t, mux.ServeHTTP)

	c := New(Config{
		ClientID: "client-id", ClientSecret: "client-secret",
		Timeout: 5 * time.Second, MaxRetries: 0,
		BaseURL: ts.URL, TokenURL: ts.URL + "/oauth/token",
	})

	for i := 0; i < 2; i++ {
		clients, err := c.ListOAuthClients(context.Background())
		require.NoError(t, err)
		require.Len(t, clients, 1)
		assert.Equal(t, []string{"r1"}, clients[0].RoleIDs)
	}
	assert.Equal(t, int32(1), tokenCalls.Load(), "token must be reused until expiry")
}

func TestNew_RejectedCredentialsAreUnauthorised(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{
			"error": "invalid_client", "error_description": "client not found",
		})
	})
	ts := platformServer(t, mux.ServeHTTP)

	c := New(Config{
		ClientID: "x", ClientSecret: "y", Timeout: 5 * time.Second,
		BaseURL: ts.URL, TokenURL: ts.URL + "/oauth/token",
	})

	_, err := c.ListOAuthClients(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorised(err))
	assert.Contains(t, err.Error(), "client not found")
}

func TestNew_DerivesRegionHosts(t *testing.T) {
	c := New(Config{Region: "mypurecloud.ie"})
	assert.Equal(t, "https://api.mypurecloud.ie", c.baseURL)
}
