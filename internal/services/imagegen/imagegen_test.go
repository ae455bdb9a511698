package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podforge/internal/config"
)

// pngBytes is long enough that its base64 form trips the raw-scrape strategy.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 128)...)

var pngBase64 = base64.StdEncoding.EncodeToString(pngBytes)

func messageFromJSON(t *testing.T, raw string) assistantMessage {
	t.Helper()
	var msg assistantMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	return msg
}

func TestExtractFromMessageImages(t *testing.T) {
	msg := messageFromJSON(t, fmt.Sprintf(
		`{"content":"here you go","images":[{"image_url":{"url":"data:image/png;base64,%s"}}]}`, pngBase64))
	data, strategy, err := ExtractImage(msg)
	if err != nil {
		t.Fatalf("ExtractImage: %v", err)
	}
	if strategy != "message-images" {
		t.Fatalf("strategy = %s", strategy)
	}
	if string(data) != string(pngBytes) {
		t.Fatal("decoded bytes differ")
	}
}

func TestExtractFromContentParts(t *testing.T) {
	msg := messageFromJSON(t, fmt.Sprintf(
		`{"content":[{"type":"text","text":"sure"},{"type":"image_url","image_url":{"url":"data:image/png;base64,%s"}}]}`, pngBase64))
	data, strategy, err := ExtractImage(msg)
	if err != nil {
		t.Fatalf("ExtractImage: %v", err)
	}
	if strategy != "content-parts" {
		t.Fatalf("strategy = %s", strategy)
	}
	if len(data) != len(pngBytes) {
		t.Fatalf("decoded %d bytes", len(data))
	}
}

func TestExtractFromContentDataURL(t *testing.T) {
	msg := messageFromJSON(t, fmt.Sprintf(
		`{"content":"Here is the image: data:image/jpeg;base64,%s done"}`, pngBase64))
	_, strategy, err := ExtractImage(msg)
	if err != nil {
		t.Fatalf("ExtractImage: %v", err)
	}
	if strategy != "content-data-url" {
		t.Fatalf("strategy = %s", strategy)
	}
}

func TestExtractFromRawBase64(t *testing.T) {
	msg := messageFromJSON(t, fmt.Sprintf(`{"content":"%s"}`, pngBase64))
	_, strategy, err := ExtractImage(msg)
	if err != nil {
		t.Fatalf("ExtractImage: %v", err)
	}
	if strategy != "content-raw-base64" {
		t.Fatalf("strategy = %s", strategy)
	}
}

func TestExtractOrderPrefersStructuredAttachments(t *testing.T) {
	// Both layouts present: the attachment wins over content scraping.
	msg := messageFromJSON(t, fmt.Sprintf(
		`{"content":"%s","images":[{"image_url":{"url":"data:image/png;base64,%s"}}]}`, pngBase64, pngBase64))
	_, strategy, err := ExtractImage(msg)
	if err != nil {
		t.Fatalf("ExtractImage: %v", err)
	}
	if strategy != "message-images" {
		t.Fatalf("strategy = %s", strategy)
	}
}

func TestExtractFailureNamesStrategies(t *testing.T) {
	msg := messageFromJSON(t, `{"content":"sorry, I cannot draw that"}`)
	_, _, err := ExtractImage(msg)
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if len(extractionErr.Attempted) != 4 {
		t.Fatalf("attempted = %v", extractionErr.Attempted)
	}
	if !strings.Contains(err.Error(), "message-images") {
		t.Fatalf("error does not name strategies: %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	// The configured base URL is the full endpoint path, matching the
	// shipped default; the client must not append anything to it.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer imgkey" {
			t.Errorf("auth = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "image-model-1" || req.MaxTokens != 4096 || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		fmt.Fprintf(w,
			`{"choices":[{"message":{"content":"ok","images":[{"image_url":{"url":"data:image/png;base64,%s"}}]}}]}`,
			pngBase64)
	}))
	defer server.Close()

	client, err := New(config.ImageGen{BaseURL: server.URL + "/v1/chat/completions", APIKey: "imgkey", Model: "image-model-1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := client.GenerateImage(context.Background(), "two people in a studio")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if len(data) != len(pngBytes) {
		t.Fatalf("got %d bytes", len(data))
	}
}

func TestGenerateImageNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client, err := New(config.ImageGen{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.GenerateImage(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
