package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultQueuePageSize = 100
	maxQueuePageSize     = 500
)

var searchQueuesTool = &mcp.Tool{
	Name:        "search_queues",
	Annotations: readOnly("Search Queues"),
	Description: "Searches for routing queues based on their name, allowing for wildcard searches. Returns a paginated list of matching queues, including their Name, ID, Description (if available), and Member Count (if available). Also provides pagination details like current page, page size, total results found, and total pages available. Useful for finding specific queue IDs, checking queue configurations, or listing available queues.",
}

type searchQueuesInput struct {
	Name       string `json:"name" jsonschema:"The name (or partial name) of the routing queue(s) to search for. Wildcards ('*') are supported for pattern matching (e.g., 'Support*', '*Emergency', '*Sales*'). Use '*' alone to retrieve all queues"`
	PageNumber *int   `json:"pageNumber,omitempty" jsonschema:"The page number of the results to retrieve, starting from 1. Defaults to 1 if not specified. Used with 'pageSize' for navigating large result sets"`
	PageSize   *int   `json:"pageSize,omitempty" jsonschema:"The maximum number of queues to return per page. Defaults to 100 if not specified. Used with 'pageNumber' for pagination. The maximum value is 500"`
}

type queueSummary struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	MemberCount *int   `json:"memberCount,omitempty"`
}

type searchQueuesResponse struct {
	Queues     []queueSummary `json:"queues"`
	Pagination pagination     `json:"pagination"`
}

func (ts *toolset) searchQueues(ctx context.Context, _ *mcp.CallToolRequest, in searchQueuesInput) (*mcp.CallToolResult, any, error) {
	if in.Name == "" {
		return errorResult("name must not be empty")
	}
	pageNumber, msg, ok := pageArg("pageNumber", in.PageNumber, 1, 0)
	if !ok {
		return errorResult(msg)
	}
	pageSize, msg, ok := pageArg("pageSize", in.PageSize, defaultQueuePageSize, maxQueuePageSize)
	if !ok {
		return errorResult(msg)
	}

	listing, err := ts.deps.Genesys.SearchQueues(ctx, in.Name, pageNumber, pageSize)
	if err != nil {
		return errorResult(failureMessage("Failed to search queues", err))
	}

	resp := searchQueuesResponse{Queues: make([]queueSummary, 0, len(listing.Entities))}
	for _, q := range listing.Entities {
		if q.ID == "" || q.Name == "" {
			continue
		}
		resp.Queues = append(resp.Queues, queueSummary{
			Name:        q.Name,
			ID:          q.ID,
			Description: q.Description,
			MemberCount: q.MemberCount,
		})
	}

	var info pageInfo
	if len(listing.Entities) > 0 {
		info = pageInfo{
			PageNumber: listing.PageNumber,
			PageSize:   listing.PageSize,
			PageCount:  listing.PageCount,
			TotalHits:  listing.Total,
		}
	}
	resp.Pagination = paginationSection("totalMatchingQueues", info)
	return textResult(resp)
}
