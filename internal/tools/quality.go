package tools

import (
	"context"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var voiceCallQualityTool = &mcp.Tool{
	Name:        "voice_call_quality",
	Annotations: readOnly("Voice Call Quality"),
	Description: "Retrieves voice call quality metrics for one or more conversations by ID. This tool specifically focuses on voice interactions and returns the minimum Mean Opinion Score (MOS) observed in each conversation as structured JSON. MOS is a measure of perceived audio quality based on factors such as jitter, latency, packet loss, and codec. Use the following legend to interpret MOS values:\n\n" +
		"  • Poor:       MOS < 3.5\n" +
		"  • Acceptable: 3.5 ≤ MOS < 4.3\n" +
		"  • Excellent:  MOS ≥ 4.3",
}

type conversationIDsInput struct {
	ConversationIDs []string `json:"conversationIds" jsonschema:"A list of up to 100 conversation IDs (UUIDs, e.g. 00000000-0000-0000-0000-000000000000)"`
}

type callQuality struct {
	ConversationID string `json:"conversationId"`
	MinimumMos     string `json:"minimumMos"`
	QualityLabel   string `json:"qualityLabel"`
}

type voiceCallQualityResponse struct {
	Conversations []callQuality `json:"conversations"`
}

func (ts *toolset) voiceCallQuality(ctx context.Context, _ *mcp.CallToolRequest, in conversationIDsInput) (*mcp.CallToolResult, any, error) {
	if msg, ok := validateConversationIDs(in.ConversationIDs); !ok {
		return errorResult(msg)
	}

	res, err := ts.deps.Genesys.GetConversationDetails(ctx, in.ConversationIDs)
	if err != nil {
		return errorResult(failureMessage("Failed to query conversations call quality", err))
	}

	resp := voiceCallQualityResponse{Conversations: []callQuality{}}
	for _, c := range res.Conversations {
		if c.ConversationID == "" || c.MediaStatsMinConversationMos == nil || *c.MediaStatsMinConversationMos == 0 {
			continue
		}
		mos := *c.MediaStatsMinConversationMos
		resp.Conversations = append(resp.Conversations, callQuality{
			ConversationID: c.ConversationID,
			MinimumMos:     strconv.FormatFloat(mos, 'f', 2, 64),
			QualityLabel:   interpretCallQuality(mos),
		})
	}
	return textResult(resp)
}

func interpretCallQuality(mos float64) string {
	switch {
	case mos < 3.5:
		return "Poor"
	case mos < 4.3:
		return "Acceptable"
	default:
		return "Excellent"
	}
}
