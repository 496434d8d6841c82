// Package tools exposes the Genesys Cloud analytics operations as MCP tools.
// Every tool answers with one JSON text item; failures are reported as
// {"errorMessage": "..."} with isError set rather than as protocol errors.
package tools

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/asyncjob"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/cache"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	unauthorisedSuffix = "Unauthorised access. Please check API credentials or permissions"

	maxConversationIDs = 100
)

// Deps are the collaborators shared by all tools.
type Deps struct {
	Genesys genesys.Client

	// Cache holds OAuth client usage results. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Recorder, when set, audits every asynchronous job outcome.
	Recorder asyncjob.Recorder
	Logger   *slog.Logger

	PollInterval    time.Duration
	PollMaxAttempts int
	// Sleep replaces the wait between poll attempts; used by tests.
	Sleep asyncjob.SleepFunc
	// Now is the clock for date range clamping; defaults to time.Now.
	Now func() time.Time
}

type toolset struct {
	deps             Deps
	log              *slog.Logger
	conversationJobs *asyncjob.Poller[*genesys.JobStatus]
	usageQueries     *asyncjob.Poller[*genesys.UsageQueryResult]
}

// NewServer creates an MCP server with every tool registered.
func NewServer(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "Genesys Cloud", Version: version}, nil)
	Register(server, deps)
	return server
}

// Register adds every tool to server.
func Register(server *mcp.Server, deps Deps) {
	ts := newToolset(deps)

	mcp.AddTool(server, searchQueuesTool, ts.searchQueues)
	mcp.AddTool(server, sampleConversationsTool, ts.sampleConversationsByQueue)
	mcp.AddTool(server, searchVoiceConversationsTool, ts.searchVoiceConversations)
	mcp.AddTool(server, voiceCallQualityTool, ts.voiceCallQuality)
	mcp.AddTool(server, conversationSentimentTool, ts.conversationSentiment)
	mcp.AddTool(server, oauthClientsTool, ts.oauthClients)
	mcp.AddTool(server, oauthClientUsageTool, ts.oauthClientUsage)
}

func newToolset(deps Deps) *toolset {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = cache.DefaultMemoryTTL
	}

	opts := []asyncjob.Option{asyncjob.WithLogger(deps.Logger)}
	if deps.Sleep != nil {
		opts = append(opts, asyncjob.WithSleep(deps.Sleep))
	}
	if deps.Recorder != nil {
		opts = append(opts, asyncjob.WithRecorder(deps.Recorder))
	}

	return &toolset{
		deps:             deps,
		log:              deps.Logger,
		conversationJobs: asyncjob.NewPoller(conversationJobSpec(deps), opts...),
		usageQueries:     asyncjob.NewPoller(usageQuerySpec(deps), opts...),
	}
}

func conversationJobSpec(deps Deps) asyncjob.Spec[*genesys.JobStatus] {
	return asyncjob.Spec[*genesys.JobStatus]{
		Kind:  "conversation_details",
		Label: "analytics job",
		Status: func(s *genesys.JobStatus) string {
			if s == nil {
				return ""
			}
			return s.State
		},
		Success: "FULFILLED",
		Unknown: "UNKNOWN",
		Running: []string{"QUEUED", "PENDING"},
		Failures: map[string]string{
			"FAILED":    "failed",
			"CANCELLED": "was cancelled",
			"EXPIRED":   "results have expired",
		},
		Interval:    deps.PollInterval,
		MaxAttempts: deps.PollMaxAttempts,
	}
}

func usageQuerySpec(deps Deps) asyncjob.Spec[*genesys.UsageQueryResult] {
	return asyncjob.Spec[*genesys.UsageQueryResult]{
		Kind:  "oauth_client_usage",
		Label: "usage query",
		Status: func(s *genesys.UsageQueryResult) string {
			if s == nil {
				return ""
			}
			return s.QueryStatus
		},
		Success: "COMPLETE",
		Unknown: "UNKNOWN",
		Running: []string{"RUNNING", "QUEUED", "PENDING"},
		Failures: map[string]string{
			"FAILED": "failed",
		},
		Interval:    deps.PollInterval,
		MaxAttempts: deps.PollMaxAttempts,
	}
}

// normalizeRange validates a startDate/endDate pair against the tool clock.
// The returned message is what the caller sees.
func (ts *toolset) normalizeRange(startDate, endDate string) (asyncjob.TimeRange, string, bool) {
	r, err := asyncjob.NormalizeRange(startDate, endDate, ts.deps.Now())
	if err == nil {
		return r, "", true
	}
	if errors.Is(err, asyncjob.ErrRangeInverted) {
		return r, "Start date must be before end date", false
	}
	return r, err.Error(), false
}

// failureMessage renders a platform failure as "<prefix>: <reason>".
func failureMessage(prefix string, err error) string {
	if genesys.IsUnauthorised(err) {
		return prefix + ": " + unauthorisedSuffix
	}
	return prefix + ": " + err.Error()
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// validateConversationIDs checks a batch of 1 to 100 conversation UUIDs.
func validateConversationIDs(ids []string) (string, bool) {
	if len(ids) == 0 || len(ids) > maxConversationIDs {
		return fmt.Sprintf("conversationIds must contain between 1 and %d conversation IDs", maxConversationIDs), false
	}
	for i, id := range ids {
		if !validUUID(id) {
			return fmt.Sprintf("conversationIds[%d] is not a valid UUID", i), false
		}
	}
	return "", true
}

func readOnly(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{Title: title, ReadOnlyHint: true}
}
