package mcp

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"brushup/internal/config"
	"brushup/internal/errors"
	"brushup/internal/record"
	"brushup/internal/studio"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	studio *studio.Studio
	cfg    *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *studio.Studio, cfg *config.Config) *Handlers {
	return &Handlers{studio: st, cfg: cfg}
}

// Request types for each tool

// GenerateRequest represents the arguments for image_generate.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Provider     string `json:"provider,omitempty"`
	IncludeImage *bool  `json:"include_image,omitempty"`
}

// EditRequest represents the arguments for image_edit.
type EditRequest struct {
	Images       []string `json:"images"`
	Prompt       string   `json:"prompt,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	IncludeImage *bool    `json:"include_image,omitempty"`
}

// HistoryListRequest represents the arguments for history_list.
type HistoryListRequest struct {
	Limit         int  `json:"limit,omitempty"`
	IncludeImages bool `json:"include_images,omitempty"`
}

// HistoryDeleteRequest represents the arguments for history_delete.
type HistoryDeleteRequest struct {
	ID string `json:"id"`
}

// HistoryClearRequest represents the arguments for history_clear.
type HistoryClearRequest struct {
	Confirm bool `json:"confirm"`
}

// recordView is the wire shape of a record in tool responses.
type recordView struct {
	ID             string `json:"id"`
	Prompt         string `json:"prompt"`
	Provider       string `json:"provider"`
	Mode           string `json:"mode"`
	State          string `json:"state"`
	CreatedAt      string `json:"created_at"`
	ResultImage    string `json:"result_image,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

func viewOf(r *record.Record, includeImage bool) recordView {
	v := recordView{
		ID:             r.ID,
		Prompt:         r.Prompt,
		Provider:       string(r.Provider),
		Mode:           string(r.Mode),
		State:          string(r.State),
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339Nano),
		FailureMessage: r.FailureMessage,
	}
	if includeImage {
		v.ResultImage = r.ResultImage
	}
	return v
}

// Handler implementations

// HandleGenerate handles the image_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return errorResult(errors.NewInvalidRequest("prompt is required")), nil
	}

	pending, err := h.studio.Submit(ctx, studio.Submission{
		Text:     input.Prompt,
		Provider: record.Provider(input.Provider),
	})
	if err != nil {
		return errorResult(err), nil
	}

	settled := <-pending.Done
	return settledResult(settled, includeImage(input.IncludeImage))
}

// HandleEdit handles the image_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Images) == 0 {
		return errorResult(errors.NewInvalidRequest("images is required")), nil
	}

	attachments := make([]studio.Attachment, 0, len(input.Images))
	for _, ref := range input.Images {
		a, err := attachmentFromRef(ref)
		if err != nil {
			return errorResult(err), nil
		}
		attachments = append(attachments, a)
	}

	pending, err := h.studio.Submit(ctx, studio.Submission{
		Text:        input.Prompt,
		Attachments: attachments,
		Provider:    record.Provider(input.Provider),
	})
	if err != nil {
		return errorResult(err), nil
	}

	settled := <-pending.Done
	return settledResult(settled, includeImage(input.IncludeImage))
}

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	records := h.studio.History().Snapshot()
	if input.Limit > 0 && input.Limit < len(records) {
		records = records[:input.Limit]
	}

	views := make([]recordView, len(records))
	for i, r := range records {
		views[i] = viewOf(r, input.IncludeImages)
	}
	return successResult(map[string]any{
		"records": views,
		"count":   len(views),
	})
}

// HandleHistoryDelete handles the history_delete tool call.
func (h *Handlers) HandleHistoryDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.studio.Delete(input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "id": input.ID})
}

// HandleHistoryClear handles the history_clear tool call.
func (h *Handlers) HandleHistoryClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewInvalidRequest("confirm must be true to clear the history")), nil
	}

	if err := h.studio.Clear(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"cleared": true})
}

// attachmentFromRef maps a tool-supplied image reference to an attachment.
// Data URLs and http(s) URLs pass through as refs; anything else is read as a
// local file path.
func attachmentFromRef(ref string) (studio.Attachment, error) {
	if strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") {
		return studio.Attachment{Ref: ref}, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return studio.Attachment{}, errors.NewAttachmentUnreadable(ref, err)
	}
	return studio.Attachment{Data: data, Filename: ref}, nil
}

func includeImage(flag *bool) bool {
	return flag == nil || *flag
}

// settledResult reports a terminal record. A failed record is a successful
// tool call; the failure lives inside the record.
func settledResult(settled *record.Record, withImage bool) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{
		"record": viewOf(settled, withImage),
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if bErr, ok := err.(*errors.BrushupError); ok {
		errorObj := map[string]any{
			"code":    bErr.Code,
			"message": bErr.Message,
			"status":  bErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if bErr.Code != errors.ErrInternal && bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
