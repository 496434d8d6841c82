package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// fakeGenesys implements genesys.Client with per-method hooks and call counts.
// An unset hook fails the test when called.
type fakeGenesys struct {
	t  *testing.T
	mu sync.Mutex

	calls map[string]int

	searchQueues     func(name string, pageNumber, pageSize int) (*genesys.QueueListing, error)
	submitJob        func(q genesys.ConversationJobQuery) (*genesys.JobSubmission, error)
	getJob           func(jobID string) (*genesys.JobStatus, error)
	getJobResults    func(jobID, cursor string) (*genesys.JobResults, error)
	queryDetails     func(q genesys.ConversationQuery) (*genesys.ConversationQueryResponse, error)
	getDetails       func(ids []string) (*genesys.ConversationsResponse, error)
	getMetrics       func(id string) (*genesys.ConversationMetrics, error)
	submitUsage      func(clientID string, q genesys.UsageQuery) (*genesys.UsageExecution, error)
	getUsageResult   func(executionID, clientID string) (*genesys.UsageQueryResult, error)
	listOAuthClients func() ([]genesys.OAuthClient, error)
	listDivisions    func() ([]genesys.Division, error)
	listRoles        func(ids []string) ([]genesys.Role, error)
}

func newFakeGenesys(t *testing.T) *fakeGenesys {
	return &fakeGenesys{t: t, calls: map[string]int{}}
}

func (f *fakeGenesys) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeGenesys) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGenesys) unexpected(name string) {
	f.t.Errorf("unexpected call to %s", name)
}

func (f *fakeGenesys) SearchQueues(_ context.Context, name string, pageNumber, pageSize int) (*genesys.QueueListing, error) {
	f.count("SearchQueues")
	if f.searchQueues == nil {
		f.unexpected("SearchQueues")
		return &genesys.QueueListing{}, nil
	}
	return f.searchQueues(name, pageNumber, pageSize)
}

func (f *fakeGenesys) SubmitConversationDetailsJob(_ context.Context, q genesys.ConversationJobQuery) (*genesys.JobSubmission, error) {
	f.count("SubmitConversationDetailsJob")
	if f.submitJob == nil {
		f.unexpected("SubmitConversationDetailsJob")
		return &genesys.JobSubmission{}, nil
	}
	return f.submitJob(q)
}

func (f *fakeGenesys) GetConversationDetailsJob(_ context.Context, jobID string) (*genesys.JobStatus, error) {
	f.count("GetConversationDetailsJob")
	if f.getJob == nil {
		f.unexpected("GetConversationDetailsJob")
		return &genesys.JobStatus{}, nil
	}
	return f.getJob(jobID)
}

func (f *fakeGenesys) GetConversationDetailsJobResults(_ context.Context, jobID, cursor string) (*genesys.JobResults, error) {
	f.count("GetConversationDetailsJobResults")
	if f.getJobResults == nil {
		f.unexpected("GetConversationDetailsJobResults")
		return &genesys.JobResults{}, nil
	}
	return f.getJobResults(jobID, cursor)
}

func (f *fakeGenesys) QueryConversationDetails(_ context.Context, q genesys.ConversationQuery) (*genesys.ConversationQueryResponse, error) {
	f.count("QueryConversationDetails")
	if f.queryDetails == nil {
		f.unexpected("QueryConversationDetails")
		return &genesys.ConversationQueryResponse{}, nil
	}
	return f.queryDetails(q)
}

func (f *fakeGenesys) GetConversationDetails(_ context.Context, ids []string) (*genesys.ConversationsResponse, error) {
	f.count("GetConversationDetails")
	if f.getDetails == nil {
		f.unexpected("GetConversationDetails")
		return &genesys.ConversationsResponse{}, nil
	}
	return f.getDetails(ids)
}

func (f *fakeGenesys) GetConversationMetrics(_ context.Context, id string) (*genesys.ConversationMetrics, error) {
	f.count("GetConversationMetrics")
	if f.getMetrics == nil {
		f.unexpected("GetConversationMetrics")
		return &genesys.ConversationMetrics{}, nil
	}
	return f.getMetrics(id)
}

func (f *fakeGenesys) SubmitOAuthClientUsageQuery(_ context.Context, clientID string, q genesys.UsageQuery) (*genesys.UsageExecution, error) {
	f.count("SubmitOAuthClientUsageQuery")
	if f.submitUsage == nil {
		f.unexpected("SubmitOAuthClientUsageQuery")
		return &genesys.UsageExecution{}, nil
	}
	return f.submitUsage(clientID, q)
}

func (f *fakeGenesys) GetOAuthClientUsageQueryResult(_ context.Context, executionID, clientID string) (*genesys.UsageQueryResult, error) {
	f.count("GetOAuthClientUsageQueryResult")
	if f.getUsageResult == nil {
		f.unexpected("GetOAuthClientUsageQueryResult")
		return &genesys.UsageQueryResult{}, nil
	}
	return f.getUsageResult(executionID, clientID)
}

func (f *fakeGenesys) ListOAuthClients(_ context.Context) ([]genesys.OAuthClient, error) {
	f.count("ListOAuthClients")
	if f.listOAuthClients == nil {
		f.unexpected("ListOAuthClients")
		return nil, nil
	}
	return f.listOAuthClients()
}

func (f *fakeGenesys) ListDivisions(_ context.Context) ([]genesys.Division, error) {
	f.count("ListDivisions")
	if f.listDivisions == nil {
		f.unexpected("ListDivisions")
		return nil, nil
	}
	return f.listDivisions()
}

func (f *fakeGenesys) ListRoles(_ context.Context, ids []string) ([]genesys.Role, error) {
	f.count("ListRoles")
	if f.listRoles == nil {
		f.unexpected("ListRoles")
		return nil, nil
	}
	return f.listRoles(ids)
}

var _ genesys.Client = (*fakeGenesys)(nil)

// sleepCounter records poll waits without sleeping.
type sleepCounter struct {
	mu    sync.Mutex
	waits int
}

func (s *sleepCounter) sleep(context.Context, time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits++
	return nil
}

func (s *sleepCounter) Waits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waits
}

type memRecorder struct {
	mu   sync.Mutex
	runs []*models.JobRun
}

func (r *memRecorder) RecordJobRun(_ context.Context, run *models.JobRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// testNow is after every fixture date, so ranges are not clamped.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testDeps(g *fakeGenesys, sleep *sleepCounter) Deps {
	return Deps{
		Genesys: g,
		Sleep:   sleep.sleep,
		Now:     func() time.Time { return testNow },
	}
}

// connect starts a server over in-memory transports and returns a client
// session to it.
func connect(t *testing.T, deps Deps) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer("test", deps)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// callTool invokes a tool and returns its single text item and error flag.
func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text, res.IsError
}

// errorMessageOf decodes an error payload.
func errorMessageOf(t *testing.T, text string) string {
	t.Helper()
	var p errorPayload
	require.NoError(t, json.Unmarshal([]byte(text), &p))
	return p.ErrorMessage
}

func callParams(name string, args map[string]any) *mcp.CallToolParams {
	return &mcp.CallToolParams{Name: name, Arguments: args}
}
