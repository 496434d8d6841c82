package tools

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type errorPayload struct {
	ErrorMessage string `json:"errorMessage"`
}

// marshalText encodes v the way clients expect: compact, no HTML escaping.
func marshalText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// textResult wraps v as the single JSON text item of a successful call.
func textResult(v any) (*mcp.CallToolResult, any, error) {
	text, err := marshalText(v)
	if err != nil {
		return errorResult("Failed to encode response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult reports a failed call as {"errorMessage": msg} with isError set.
func errorResult(msg string) (*mcp.CallToolResult, any, error) {
	text, _ := marshalText(errorPayload{ErrorMessage: msg})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
