// Package genesys is a small client for the Genesys Cloud Platform API,
// covering the routing, analytics, speech analytics, OAuth and authorization
// endpoints the tools need.
package genesys

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client is the interface for calling the Platform API.
type Client interface {
	SearchQueues(ctx context.Context, name string, pageNumber, pageSize int) (*QueueListing, error)

	SubmitConversationDetailsJob(ctx context.Context, q ConversationJobQuery) (*JobSubmission, error)
	GetConversationDetailsJob(ctx context.Context, jobID string) (*JobStatus, error)
	GetConversationDetailsJobResults(ctx context.Context, jobID, cursor string) (*JobResults, error)
	QueryConversationDetails(ctx context.Context, q ConversationQuery) (*ConversationQueryResponse, error)
	GetConversationDetails(ctx context.Context, ids []string) (*ConversationsResponse, error)
	GetConversationMetrics(ctx context.Context, conversationID string) (*ConversationMetrics, error)

	SubmitOAuthClientUsageQuery(ctx context.Context, clientID string, q UsageQuery) (*UsageExecution, error)
	GetOAuthClientUsageQueryResult(ctx context.Context, executionID, clientID string) (*UsageQueryResult, error)
	ListOAuthClients(ctx context.Context) ([]OAuthClient, error)

	ListDivisions(ctx context.Context) ([]Division, error)
	ListRoles(ctx context.Context, ids []string) ([]Role, error)
}

// Config configures an HTTPClient. BaseURL and TokenURL default to the
// region's API and login hosts.
type Config struct {
	Region       string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration

	BaseURL  string
	TokenURL string
	Logger   *slog.Logger
}

// HTTPClient implements Client over HTTPS with an OAuth client-credentials
// token that is fetched and refreshed on demand.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// New creates an HTTPClient authenticated with the client-credentials grant.
func New(cfg Config) *HTTPClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api." + cfg.Region
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://login." + cfg.Region + "/oauth/token"
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: newRetryTransport(http.DefaultTransport, cfg.MaxRetries, cfg.RetryDelay, cfg.Logger),
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// The token source keeps this context for refreshes; it only carries the
	// base client, never a request deadline.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(ctx)
	hc.Timeout = cfg.Timeout

	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// NewWithHTTPClient creates an HTTPClient that sends requests through hc as-is.
func NewWithHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// --- Routing ---

func (c *HTTPClient) SearchQueues(ctx context.Context, name string, pageNumber, pageSize int) (*QueueListing, error) {
	params := url.Values{
		"name":       {name},
		"pageNumber": {strconv.Itoa(pageNumber)},
		"pageSize":   {strconv.Itoa(pageSize)},
	}
	var out QueueListing
	if err := c.do(ctx, http.MethodGet, "/api/v2/routing/queues", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Analytics ---

func (c *HTTPClient) SubmitConversationDetailsJob(ctx context.Context, q ConversationJobQuery) (*JobSubmission, error) {
	var out JobSubmission
	if err := c.do(ctx, http.MethodPost, "/api/v2/analytics/conversations/details/jobs", nil, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetConversationDetailsJob(ctx context.Context, jobID string) (*JobStatus, error) {
	var out JobStatus
	path := "/api/v2/analytics/conversations/details/jobs/" + url.PathEscape(jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetConversationDetailsJobResults(ctx context.Context, jobID, cursor string) (*JobResults, error) {
	var params url.Values
	if cursor != "" {
		params = url.Values{"cursor": {cursor}}
	}
	var out JobResults
	path := "/api/v2/analytics/conversations/details/jobs/" + url.PathEscape(jobID) + "/results"
	if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) QueryConversationDetails(ctx context.Context, q ConversationQuery) (*ConversationQueryResponse, error) {
	var out ConversationQueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v2/analytics/conversations/details/query", nil, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetConversationDetails(ctx context.Context, ids []string) (*ConversationsResponse, error) {
	params := url.Values{"id": {strings.Join(ids, ",")}}
	var out ConversationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v2/analytics/conversations/details", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetConversationMetrics(ctx context.Context, conversationID string) (*ConversationMetrics, error) {
	var out ConversationMetrics
	path := "/api/v2/speechandtextanalytics/conversations/" + url.PathEscape(conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- OAuth ---

func (c *HTTPClient) SubmitOAuthClientUsageQuery(ctx context.Context, clientID string, q UsageQuery) (*UsageExecution, error) {
	var out UsageExecution
	path := "/api/v2/oauth/clients/" + url.PathEscape(clientID) + "/usage/query"
	if err := c.do(ctx, http.MethodPost, path, nil, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetOAuthClientUsageQueryResult(ctx context.Context, executionID, clientID string) (*UsageQueryResult, error) {
	var out UsageQueryResult
	path := fmt.Sprintf("/api/v2/oauth/clients/%s/usage/query/results/%s",
		url.PathEscape(clientID), url.PathEscape(executionID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListOAuthClients(ctx context.Context) ([]OAuthClient, error) {
	var out entityListing[OAuthClient]
	if err := c.do(ctx, http.MethodGet, "/api/v2/oauth/clients", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Entities, nil
}

// --- Authorization ---

// ListDivisions returns every division in one page; organisations have few.
func (c *HTTPClient) ListDivisions(ctx context.Context) ([]Division, error) {
	params := url.Values{"pageSize": {"99999"}}
	var out entityListing[Division]
	if err := c.do(ctx, http.MethodGet, "/api/v2/authorization/divisions", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Entities, nil
}

func (c *HTTPClient) ListRoles(ctx context.Context, ids []string) ([]Role, error) {
	if len(ids) == 0 {
		return []Role{}, nil
	}
	params := url.Values{
		"id":       ids,
		"pageSize": {strconv.Itoa(len(ids))},
	}
	var out entityListing[Role]
	if err := c.do(ctx, http.MethodGet, "/api/v2/authorization/roles", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Entities, nil
}

// --- transport ---

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return tokenError(retrieveErr)
		}
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

type errorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Status    int    `json:"status"`
	ContextID string `json:"contextId"`
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		apiErr.ContextID = eb.ContextID
	} else if s := strings.TrimSpace(string(raw)); s != "" {
		apiErr.Message = s
	}
	return apiErr
}

// tokenError reports a rejected client-credentials exchange as an APIError so
// callers classify it like any other unauthorised response.
func tokenError(err *oauth2.RetrieveError) error {
	status := http.StatusUnauthorized
	if err.Response != nil {
		status = err.Response.StatusCode
	}
	msg := err.ErrorDescription
	if msg == "" {
		msg = err.ErrorCode
	}
	if msg == "" {
		msg = "token request rejected"
	}
	return &APIError{StatusCode: status, Code: err.ErrorCode, Message: msg}
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
