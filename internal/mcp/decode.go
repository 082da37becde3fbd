package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode maps a tool call's argument object onto the typed request struct for
// that tool, going through encoding/json so field names and type coercion
// follow the structs' json tags.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return input, fmt.Errorf("encode tool arguments: %w", err)
	}
	if err := json.Unmarshal(b, &input); err != nil {
		return input, fmt.Errorf("decode tool arguments: %w", err)
	}
	return input, nil
}
