package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiStreamChat(t *testing.T) {
	var gotReq geminiGenerateReq

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("expected alt=sse, got %q", r.URL.Query().Get("alt"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"<html>", "<body>hi</body>", "</html>"} {
			chunk := geminiGenerateResp{}
			chunk.Candidates = append(chunk.Candidates, struct {
				Content geminiContent `json:"content"`
			}{Content: geminiContent{Parts: []geminiPart{{Text: text}}}})
			b, _ := json.Marshal(chunk)
			w.Write([]byte("data: "))
			w.Write(b)
			w.Write([]byte("\n\n"))
		}
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "test-key", "gemini-2.0-flash-001")
	chunks, errs := p.StreamChat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "a page"},
	})

	var b strings.Builder
	for c := range chunks {
		b.WriteString(c)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got := b.String(); got != "<html><body>hi</body></html>" {
		t.Fatalf("concatenated stream = %q", got)
	}

	// system turn travels out of band, user turn as content
	if gotReq.SystemInstruction == nil || gotReq.SystemInstruction.Parts[0].Text != "be terse" {
		t.Fatalf("system instruction not carried: %+v", gotReq.SystemInstruction)
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Role != "user" || gotReq.Contents[0].Parts[0].Text != "a page" {
		t.Fatalf("unexpected contents: %+v", gotReq.Contents)
	}
}

func TestGeminiStreamChat_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "test-key", "")
	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})

	for range chunks {
		t.Fatalf("no chunks expected on upstream failure")
	}
	if err := <-errs; err == nil {
		t.Fatalf("expected an error")
	}
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	p := NewGeminiProvider("", "", "")
	if _, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}}); err == nil {
		t.Fatalf("missing api key accepted")
	}
}
