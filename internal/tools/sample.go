package tools

import (
	"context"
	"errors"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/asyncjob"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	sampleSize = 100
	// maxResultPages bounds how many cursor pages of job results are read.
	maxResultPages = 20
)

var sampleConversationsTool = &mcp.Tool{
	Name:        "sample_conversations_by_queue",
	Annotations: readOnly("Sample Conversations by Queue"),
	Description: "Retrieves conversation analytics for a specific queue between two dates, returning a representative sample of conversation IDs. Useful for reporting, investigation, or summarisation.",
}

type sampleConversationsInput struct {
	QueueID   string `json:"queueId" jsonschema:"The UUID of the queue to filter conversations by. (e.g., 00000000-0000-0000-0000-000000000000)"`
	StartDate string `json:"startDate" jsonschema:"The start date/time in ISO-8601 format (e.g., '2024-01-01T00:00:00Z')"`
	EndDate   string `json:"endDate" jsonschema:"The end date/time in ISO-8601 format (e.g., '2024-01-07T23:59:59Z')"`
}

type sampleConversationsResponse struct {
	SizeOfSample              int      `json:"sizeOfSample"`
	TotalConversationsSampled int      `json:"totalConversationsSampled"`
	SampledConversations      []string `json:"sampledConversations"`
}

func (ts *toolset) sampleConversationsByQueue(ctx context.Context, _ *mcp.CallToolRequest, in sampleConversationsInput) (*mcp.CallToolResult, any, error) {
	if !validUUID(in.QueueID) {
		return errorResult("queueId is not a valid UUID")
	}
	r, msg, ok := ts.normalizeRange(in.StartDate, in.EndDate)
	if !ok {
		return errorResult(msg)
	}

	query := genesys.ConversationJobQuery{
		Interval: r.Interval(),
		Order:    "asc",
		OrderBy:  "conversationStart",
		SegmentFilters: []genesys.SegmentFilter{
			{Type: "and", Predicates: []genesys.Predicate{{Dimension: "purpose", Value: "customer"}}},
			{Type: "or", Predicates: []genesys.Predicate{{Dimension: "queueId", Value: in.QueueID}}},
		},
	}

	pl := asyncjob.Pipeline[*genesys.JobStatus, []string]{
		Poller: ts.conversationJobs,
		Submit: func(ctx context.Context) (string, error) {
			sub, err := ts.deps.Genesys.SubmitConversationDetailsJob(ctx, query)
			if err != nil {
				return "", err
			}
			return sub.JobID, nil
		},
		Probe: ts.deps.Genesys.GetConversationDetailsJob,
		Fetch: ts.fetchConversationIDs,
	}

	ids, err := pl.Run(ctx, in.QueueID)
	if err != nil {
		if errors.Is(err, asyncjob.ErrNoJobID) {
			return errorResult("Job ID not returned from Genesys Cloud.")
		}
		return errorResult(failureMessage("Failed to query conversations", err))
	}

	sampled := asyncjob.SampleEvenly(ids, sampleSize)
	return textResult(sampleConversationsResponse{
		SizeOfSample:              len(sampled),
		TotalConversationsSampled: len(ids),
		SampledConversations:      sampled,
	})
}

// fetchConversationIDs reads the finished job's results, following the cursor,
// and returns the non-empty conversation IDs in result order.
func (ts *toolset) fetchConversationIDs(ctx context.Context, jobID string, _ *genesys.JobStatus) ([]string, error) {
	ids := []string{}
	cursor := ""
	for page := 0; page < maxResultPages; page++ {
		res, err := ts.deps.Genesys.GetConversationDetailsJobResults(ctx, jobID, cursor)
		if err != nil {
			return nil, err
		}
		for _, c := range res.Conversations {
			if c.ConversationID != "" {
				ids = append(ids, c.ConversationID)
			}
		}
		if res.Cursor == "" {
			return ids, nil
		}
		cursor = res.Cursor
	}
	ts.log.Warn("job results truncated", "job_id", jobID, "pages", maxResultPages, "conversations", len(ids))
	return ids, nil
}
