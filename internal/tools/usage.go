package tools

import (
	"context"
	"errors"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/asyncjob"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/cache"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var oauthClientUsageTool = &mcp.Tool{
	Name:        "oauth_client_usage",
	Annotations: readOnly("OAuth Client Usage"),
	Description: "Retrieves the usage of an OAuth Client for a given period. It returns the total number of requests and a breakdown of requests per organization.",
}

type oauthClientUsageInput struct {
	OAuthClientID string `json:"oauthClientId" jsonschema:"The UUID of the OAuth Client to retrieve the usage for (e.g., 00000000-0000-0000-0000-000000000000)"`
	StartDate     string `json:"startDate" jsonschema:"The start date/time in ISO-8601 format (e.g., '2024-01-01T00:00:00Z')"`
	EndDate       string `json:"endDate" jsonschema:"The end date/time in ISO-8601 format (e.g., '2024-01-07T23:59:59Z')"`
}

// oauthClientUsageResponse echoes the dates exactly as the caller sent them.
type oauthClientUsageResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	asyncjob.UsageSummary
}

const usageFailurePrefix = "Failed to retrieve usage of OAuth client"

func (ts *toolset) oauthClientUsage(ctx context.Context, _ *mcp.CallToolRequest, in oauthClientUsageInput) (*mcp.CallToolResult, any, error) {
	if !validUUID(in.OAuthClientID) {
		return errorResult("oauthClientId is not a valid UUID")
	}
	r, msg, ok := ts.normalizeRange(in.StartDate, in.EndDate)
	if !ok {
		return errorResult(msg)
	}

	key := cache.OAuthClientUsageKey(in.OAuthClientID, r.StartMillis(), r.EndMillis())
	if ts.deps.Cache != nil {
		var cached oauthClientUsageResponse
		found, err := cache.GetJSON(ctx, ts.deps.Cache, key, &cached)
		if err != nil {
			ts.log.Warn("reading usage cache", "key", key, "error", err)
		} else if found {
			ts.log.Debug("usage cache hit", "key", key)
			return textResult(cached)
		}
	}

	pl := asyncjob.Pipeline[*genesys.UsageQueryResult, *genesys.UsageQueryResult]{
		Poller: ts.usageQueries,
		Submit: func(ctx context.Context) (string, error) {
			exec, err := ts.deps.Genesys.SubmitOAuthClientUsageQuery(ctx, in.OAuthClientID, genesys.UsageQuery{
				Interval: r.Interval(),
				Metrics:  []string{"Requests"},
				GroupBy:  []string{"TemplateUri", "HttpMethod"},
			})
			if err != nil {
				return "", err
			}
			return exec.ExecutionID, nil
		},
		Probe: func(ctx context.Context, executionID string) (*genesys.UsageQueryResult, error) {
			return ts.deps.Genesys.GetOAuthClientUsageQueryResult(ctx, executionID, in.OAuthClientID)
		},
		// The completed status payload already carries the rows.
		Fetch: func(_ context.Context, _ string, status *genesys.UsageQueryResult) (*genesys.UsageQueryResult, error) {
			return status, nil
		},
	}

	result, err := pl.Run(ctx, in.OAuthClientID)
	if err != nil {
		if errors.Is(err, asyncjob.ErrNoJobID) {
			return errorResult("Failed to get an Execution ID from Genesys Cloud's Platform API")
		}
		return errorResult(failureMessage(usageFailurePrefix, err))
	}

	records := make([]asyncjob.UsageRecord, 0, len(result.Results))
	for _, row := range result.Results {
		records = append(records, asyncjob.UsageRecord{
			HTTPMethod:  row.HTTPMethod,
			TemplateURI: row.TemplateURI,
			Requests:    row.Requests,
		})
	}
	resp := oauthClientUsageResponse{
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		UsageSummary: asyncjob.AggregateUsage(records),
	}

	if ts.deps.Cache != nil {
		if err := cache.SetJSON(ctx, ts.deps.Cache, key, resp, ts.deps.CacheTTL); err != nil {
			ts.log.Warn("writing usage cache", "key", key, "error", err)
		}
	}
	return textResult(resp)
}
