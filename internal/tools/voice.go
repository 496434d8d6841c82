package tools

import (
	"context"
	"strings"
	"time"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultConversationPageSize = 100
	maxConversationPageSize     = 100
)

var searchVoiceConversationsTool = &mcp.Tool{
	Name:        "search_voice_conversations",
	Annotations: readOnly("Search Voice Conversations"),
	Description: "Searches for voice conversations within a specified time window, optionally filtering by phone number. Returns a paginated list of conversation IDs and call duration for use in further analysis or tool calls.",
}

type searchVoiceConversationsInput struct {
	PhoneNumber string `json:"phoneNumber,omitempty" jsonschema:"Optional. Filters results to only include conversations involving this phone number (e.g., '+440000000000')"`
	PageNumber  *int   `json:"pageNumber,omitempty" jsonschema:"The page number of the results to retrieve, starting from 1. Defaults to 1 if not specified. Used with 'pageSize' for navigating large result sets"`
	PageSize    *int   `json:"pageSize,omitempty" jsonschema:"The maximum number of conversations to return per page. Defaults to 100 if not specified. Used with 'pageNumber' for pagination. The maximum value is 100"`
	StartDate   string `json:"startDate" jsonschema:"The start date/time in ISO-8601 format (e.g., '2024-01-01T00:00:00Z')"`
	EndDate     string `json:"endDate" jsonschema:"The end date/time in ISO-8601 format (e.g., '2024-01-07T23:59:59Z')"`
}

type conversationDuration struct {
	ConversationID string `json:"conversationId"`
	Duration       string `json:"duration,omitempty"`
}

type searchVoiceConversationsResponse struct {
	Conversations []conversationDuration `json:"conversations"`
	Pagination    pagination             `json:"pagination"`
}

func (ts *toolset) searchVoiceConversations(ctx context.Context, _ *mcp.CallToolRequest, in searchVoiceConversationsInput) (*mcp.CallToolResult, any, error) {
	pageNumber, msg, ok := pageArg("pageNumber", in.PageNumber, 1, 0)
	if !ok {
		return errorResult(msg)
	}
	pageSize, msg, ok := pageArg("pageSize", in.PageSize, defaultConversationPageSize, maxConversationPageSize)
	if !ok {
		return errorResult(msg)
	}
	r, msg, ok := ts.normalizeRange(in.StartDate, in.EndDate)
	if !ok {
		return errorResult(msg)
	}

	filters := []genesys.SegmentFilter{
		{Type: "or", Predicates: []genesys.Predicate{{Dimension: "mediaType", Value: "voice"}}},
		{Type: "or", Predicates: []genesys.Predicate{
			{Dimension: "direction", Value: "inbound"},
			{Dimension: "direction", Value: "outbound"},
		}},
	}
	if in.PhoneNumber != "" {
		filters = append(filters, genesys.SegmentFilter{
			Type:       "or",
			Predicates: []genesys.Predicate{{Dimension: "ani", Value: normalisePhoneNumber(in.PhoneNumber)}},
		})
	}

	res, err := ts.deps.Genesys.QueryConversationDetails(ctx, genesys.ConversationQuery{
		Interval:            r.Interval(),
		Order:               "desc",
		OrderBy:             "conversationStart",
		Paging:              &genesys.Paging{PageSize: pageSize, PageNumber: pageNumber},
		SegmentFilters:      filters,
		ConversationFilters: []genesys.SegmentFilter{},
		EvaluationFilters:   []genesys.SegmentFilter{},
		SurveyFilters:       []genesys.SegmentFilter{},
	})
	if err != nil {
		return errorResult(failureMessage("Failed to search conversations", err))
	}

	resp := searchVoiceConversationsResponse{Conversations: make([]conversationDuration, 0, len(res.Conversations))}
	for _, c := range res.Conversations {
		if c.ConversationID == "" {
			continue
		}
		item := conversationDuration{ConversationID: c.ConversationID}
		if c.ConversationStart != nil && c.ConversationEnd != nil {
			item.Duration = formatDuration(*c.ConversationStart, *c.ConversationEnd)
		}
		resp.Conversations = append(resp.Conversations, item)
	}
	resp.Pagination = paginationSection("totalConversationsReturned", pageInfo{
		PageNumber: intPtr(pageNumber),
		PageSize:   intPtr(pageSize),
		TotalHits:  res.TotalHits,
	})
	return textResult(resp)
}

// normalisePhoneNumber keeps only the digits, the form the ani dimension is
// stored in.
func normalisePhoneNumber(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// formatDuration renders the distance between two instants in the largest
// whole unit, e.g. "5 minutes".
func formatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = -d
	}
	if d < time.Second {
		return "0 seconds"
	}
	return strings.TrimSpace(humanize.RelTime(start, end, "", ""))
}
