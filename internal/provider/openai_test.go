package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"brushup/internal/config"
	"brushup/internal/dataurl"
)

func TestOpenAI_Generate(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"b64_json": "QUFBQQ=="}},
		})
	}))
	defer srv.Close()

	cfg := &config.Config{OpenAIAPIKey: "test-key", OpenAIBaseURL: srv.URL + "/v1"}
	gw := newOpenAI(cfg, 5*time.Second)

	image, err := gw.Generate(context.Background(), "a watercolor fox")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if gotPath != "/v1/images/generations" {
		t.Errorf("path = %s, want /v1/images/generations", gotPath)
	}
	if gotBody["prompt"] != "a watercolor fox" {
		t.Errorf("prompt = %v, want a watercolor fox", gotBody["prompt"])
	}
	if gotBody["model"] != openAIImageModel {
		t.Errorf("model = %v, want %s", gotBody["model"], openAIImageModel)
	}

	if !strings.HasPrefix(image, "data:image/png;base64,") {
		t.Errorf("result = %s, want a png data URL", image)
	}
	_, data, err := dataurl.Decode(image)
	if err != nil {
		t.Fatalf("result not decodable: %v", err)
	}
	if string(data) != "AAAA" {
		t.Errorf("decoded result = %q, want AAAA", data)
	}
}

func TestOpenAI_GenerateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"created": 1, "data": []any{}})
	}))
	defer srv.Close()

	cfg := &config.Config{OpenAIAPIKey: "test-key", OpenAIBaseURL: srv.URL + "/v1"}
	gw := newOpenAI(cfg, 5*time.Second)

	_, err := gw.Generate(context.Background(), "a fox")
	if err == nil {
		t.Fatal("Generate() expected error for empty response")
	}
	if !strings.Contains(err.Error(), ErrNoImage) {
		t.Errorf("error = %v, want %q", err, ErrNoImage)
	}
}

func TestOpenAI_EditNoSourceImage(t *testing.T) {
	cfg := &config.Config{OpenAIAPIKey: "test-key"}
	gw := newOpenAI(cfg, 5*time.Second)

	if _, err := gw.Edit(context.Background(), "prompt", nil); err == nil {
		t.Error("Edit() with no images expected error")
	}
}

func TestImageFromResponse(t *testing.T) {
	if _, err := imageFromResponse(openai.ImageResponse{}); err == nil {
		t.Error("expected error for empty response")
	}

	resp := openai.ImageResponse{Data: []openai.ImageResponseDataInner{{B64JSON: "AA=="}}}
	image, err := imageFromResponse(resp)
	if err != nil {
		t.Fatalf("imageFromResponse() error = %v", err)
	}
	if image != "data:image/png;base64,AA==" {
		t.Errorf("image = %s", image)
	}
}

func TestTempImageFile(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	file, err := tempImageFile(dataurl.Encode(payload, "image/png"))
	if err != nil {
		t.Fatalf("tempImageFile() error = %v", err)
	}
	defer func() {
		file.Close()
		os.Remove(file.Name())
	}()

	// The file is positioned at offset zero with the full payload readable.
	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("read temp file: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("temp file contents = %v, want %v", data, payload)
	}
}

func TestTempImageFile_InvalidDataURL(t *testing.T) {
	if _, err := tempImageFile("not a data url"); err == nil {
		t.Error("expected error for invalid data URL")
	}
}
