package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"brushup/internal/config"
	"brushup/internal/db"
	"brushup/internal/provider"
	"brushup/internal/record"
	"brushup/internal/studio"
)

const testImage = "data:image/png;base64,QUFBQQ=="

// okGateway answers every call with a fixed image.
type okGateway struct{}

func (okGateway) Generate(ctx context.Context, prompt string) (string, error) {
	return testImage, nil
}

func (okGateway) Edit(ctx context.Context, prompt string, images []string) (string, error) {
	return testImage, nil
}

// testSetup creates a studio over a temporary database with a fake gateway.
func testSetup(t *testing.T) (*Handlers, *studio.Studio) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	sel := provider.Selector(func(ctx context.Context, choice record.Provider) (provider.Gateway, error) {
		return okGateway{}, nil
	})
	st, err := studio.New(database, cfg, studio.WithGateway(sel))
	if err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}

	return NewHandlers(st, cfg), st
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not text: %T", result.Content[0])
	}
	return text.Text
}

func TestDecode(t *testing.T) {
	req := makeRequest(map[string]any{
		"prompt":   "a fox",
		"provider": "openai",
	})

	input, err := decode[GenerateRequest](req)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if input.Prompt != "a fox" || input.Provider != "openai" {
		t.Errorf("decode() = %+v", input)
	}
}

func TestDecode_TypeMismatch(t *testing.T) {
	req := makeRequest(map[string]any{"limit": "not a number"})
	if _, err := decode[HistoryListRequest](req); err == nil {
		t.Error("decode() expected error for type mismatch")
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"image_generate", "image_upscale"})
	if len(unknown) != 1 || unknown[0] != "image_upscale" {
		t.Errorf("ValidateDisabledTools() = %v, want [image_upscale]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 5 {
		t.Errorf("AllToolNames() len = %d, want 5", len(names))
	}
}

func TestHandleGenerate(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleGenerate(context.Background(), makeRequest(map[string]any{
		"prompt": "a watercolor fox",
	}))
	if err != nil {
		t.Fatalf("HandleGenerate() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("HandleGenerate() unexpected tool error: %s", resultText(t, result))
	}

	var resp struct {
		Record recordView `json:"record"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.Record.State != "succeeded" {
		t.Errorf("state = %s, want succeeded", resp.Record.State)
	}
	if resp.Record.Prompt != "a watercolor fox" {
		t.Errorf("prompt = %q, want verbatim text", resp.Record.Prompt)
	}
	if resp.Record.ResultImage != testImage {
		t.Errorf("result_image = %q, want %q", resp.Record.ResultImage, testImage)
	}
}

func TestHandleGenerate_OmitsImageOnRequest(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleGenerate(context.Background(), makeRequest(map[string]any{
		"prompt":        "a fox",
		"include_image": false,
	}))
	if err != nil {
		t.Fatalf("HandleGenerate() error = %v", err)
	}
	if strings.Contains(resultText(t, result), "result_image") {
		t.Error("response carries result_image despite include_image=false")
	}
}

func TestHandleGenerate_EmptyPrompt(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleGenerate(context.Background(), makeRequest(map[string]any{
		"prompt": "   ",
	}))
	if err != nil {
		t.Fatalf("HandleGenerate() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for empty prompt")
	}
	if !strings.Contains(resultText(t, result), "INVALID_REQUEST") {
		t.Errorf("error payload = %s, want INVALID_REQUEST", resultText(t, result))
	}
}

func TestHandleEdit(t *testing.T) {
	h, st := testSetup(t)

	result, err := h.HandleEdit(context.Background(), makeRequest(map[string]any{
		"images": []any{"data:image/png;base64,QUFBQQ=="},
		"prompt": "make it night",
	}))
	if err != nil {
		t.Fatalf("HandleEdit() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("HandleEdit() unexpected tool error: %s", resultText(t, result))
	}

	var resp struct {
		Record recordView `json:"record"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.Record.Mode != "edit" {
		t.Errorf("mode = %s, want edit", resp.Record.Mode)
	}
	if !strings.Contains(resp.Record.Prompt, "Additional instructions: make it night") {
		t.Errorf("prompt = %q, want template with additional instructions", resp.Record.Prompt)
	}

	if st.History().Len() != 1 {
		t.Errorf("history len = %d, want 1", st.History().Len())
	}
}

func TestHandleEdit_NoImages(t *testing.T) {
	h, _ := testSetup(t)

	result, err := h.HandleEdit(context.Background(), makeRequest(map[string]any{
		"prompt": "make it night",
	}))
	if err != nil {
		t.Fatalf("HandleEdit() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing images")
	}
}

func TestHandleHistoryList(t *testing.T) {
	h, st := testSetup(t)

	for _, prompt := range []string{"one", "two", "three"} {
		pending, err := st.Submit(context.Background(), studio.Submission{Text: prompt})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		<-pending.Done
	}

	result, err := h.HandleHistoryList(context.Background(), makeRequest(map[string]any{
		"limit": 2,
	}))
	if err != nil {
		t.Fatalf("HandleHistoryList() error = %v", err)
	}

	var resp struct {
		Records []recordView `json:"records"`
		Count   int          `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.Count != 2 || len(resp.Records) != 2 {
		t.Fatalf("count = %d, records = %d, want 2", resp.Count, len(resp.Records))
	}
	// Newest first.
	if resp.Records[0].Prompt != "three" {
		t.Errorf("records[0].Prompt = %q, want three", resp.Records[0].Prompt)
	}
	// Images are omitted unless asked for.
	if resp.Records[0].ResultImage != "" {
		t.Error("result_image present without include_images")
	}
}

func TestHandleHistoryDelete(t *testing.T) {
	h, st := testSetup(t)

	pending, err := st.Submit(context.Background(), studio.Submission{Text: "delete me"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-pending.Done

	result, err := h.HandleHistoryDelete(context.Background(), makeRequest(map[string]any{
		"id": pending.Record.ID,
	}))
	if err != nil {
		t.Fatalf("HandleHistoryDelete() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if st.History().Len() != 0 {
		t.Error("record still present after delete")
	}
}

func TestHandleHistoryClear_RequiresConfirm(t *testing.T) {
	h, st := testSetup(t)

	pending, err := st.Submit(context.Background(), studio.Submission{Text: "keep me"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-pending.Done

	result, err := h.HandleHistoryClear(context.Background(), makeRequest(map[string]any{
		"confirm": false,
	}))
	if err != nil {
		t.Fatalf("HandleHistoryClear() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error without confirmation")
	}
	if st.History().Len() != 1 {
		t.Error("history cleared without confirmation")
	}

	result, err = h.HandleHistoryClear(context.Background(), makeRequest(map[string]any{
		"confirm": true,
	}))
	if err != nil {
		t.Fatalf("HandleHistoryClear() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if st.History().Len() != 0 {
		t.Error("history not cleared")
	}
}

func TestNewServer_SkipsDisabledTools(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"history_clear"}

	st, err := studio.New(database, cfg)
	if err != nil {
		t.Fatalf("failed to create studio: %v", err)
	}

	s := NewServer(st, cfg, "test")
	if s == nil {
		t.Fatal("NewServer() returned nil")
	}
}
