package tools

import (
	"context"
	"math"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// sentimentConcurrency bounds in-flight metric lookups per call.
const sentimentConcurrency = 10

var conversationSentimentTool = &mcp.Tool{
	Name:        "conversation_sentiment",
	Annotations: readOnly("Conversation Sentiment"),
	Description: "Retrieves sentiment analysis scores for one or more conversations. Sentiment is evaluated based on customer phrases, categorized as positive, neutral, or negative. The result includes both a numeric sentiment score (-100 to 100) and an interpreted sentiment label.",
}

type conversationSentimentScore struct {
	ConversationID       string `json:"conversationId"`
	SentimentScore       int    `json:"sentimentScore"`
	SentimentDescription string `json:"sentimentDescription"`
}

type conversationSentimentResponse struct {
	ConversationsWithSentiment    []conversationSentimentScore `json:"conversationsWithSentiment"`
	ConversationsWithoutSentiment []string                     `json:"conversationsWithoutSentiment"`
}

type metricsLookup struct {
	metrics *genesys.ConversationMetrics
	err     error
}

func (ts *toolset) conversationSentiment(ctx context.Context, _ *mcp.CallToolRequest, in conversationIDsInput) (*mcp.CallToolResult, any, error) {
	if msg, ok := validateConversationIDs(in.ConversationIDs); !ok {
		return errorResult(msg)
	}

	// Every lookup runs to completion; one failure never cancels the others.
	// Errors are kept per lookup, so the group only bounds concurrency and
	// Wait always returns nil.
	lookups := make([]metricsLookup, len(in.ConversationIDs))
	var g errgroup.Group
	g.SetLimit(sentimentConcurrency)
	for i, id := range in.ConversationIDs {
		g.Go(func() error {
			m, err := ts.deps.Genesys.GetConversationMetrics(ctx, id)
			lookups[i] = metricsLookup{metrics: m, err: err}
			return nil
		})
	}
	_ = g.Wait()

	resp := conversationSentimentResponse{
		ConversationsWithSentiment:    []conversationSentimentScore{},
		ConversationsWithoutSentiment: []string{},
	}
	for i, l := range lookups {
		if l.err != nil {
			switch {
			case genesys.IsNotFound(l.err):
				resp.ConversationsWithoutSentiment = append(resp.ConversationsWithoutSentiment, in.ConversationIDs[i])
			case genesys.IsUnauthorised(l.err):
				return errorResult("Failed to retrieve sentiment analysis: " + unauthorisedSuffix + ".")
			default:
				ts.log.Warn("skipping conversation sentiment", "conversation_id", in.ConversationIDs[i], "error", l.err)
			}
			continue
		}

		m := l.metrics
		if m == nil || m.Conversation == nil || m.Conversation.ID == "" || m.SentimentScore == nil {
			continue
		}
		score := int(math.Round(*m.SentimentScore * 100))
		resp.ConversationsWithSentiment = append(resp.ConversationsWithSentiment, conversationSentimentScore{
			ConversationID:       m.Conversation.ID,
			SentimentScore:       score,
			SentimentDescription: interpretSentiment(score),
		})
	}
	return textResult(resp)
}

// interpretSentiment labels a score on the -100..100 scale.
func interpretSentiment(score int) string {
	switch {
	case score > 55:
		return "Strongly Positive"
	case score > 20:
		return "Slightly Positive"
	case score >= -20:
		return "Neutral"
	case score >= -55:
		return "Slightly Negative"
	default:
		return "Strongly Negative"
	}
}
