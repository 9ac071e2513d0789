package challenge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appErr "codeduel/pkg/errors"
)

func generatorResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGenerator_Generate(t *testing.T) {
	body := "```json\n" + `{
		"title": "Double",
		"description": "Print twice the input.",
		"difficulty": "easy",
		"testCases": [{"input": "2", "expectedOutput": "4"}, {"input": "3", "expectedOutput": "6"}]
	}` + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
		}
		_, _ = w.Write([]byte(generatorResponse(body)))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL, APIKey: "test-key"})

	ch, err := g.Generate(context.Background(), "easy")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if ch.Title != "Double" {
		t.Errorf("Title = %q, want Double", ch.Title)
	}
	if ch.Source != "generator" {
		t.Errorf("Source = %q, want generator", ch.Source)
	}
	if len(ch.TestCases) != 2 {
		t.Errorf("test cases = %d, want 2", len(ch.TestCases))
	}
}

func TestGenerator_GenerateBatch(t *testing.T) {
	body := "```json\n" + `[
		{"title": "A", "description": "d", "difficulty": "easy",
		 "testCases": [{"input": "1", "expectedOutput": "1"}]},
		{"title": "broken"},
		{"title": "B", "description": "d",
		 "testCases": [{"input": "2", "expectedOutput": "2"}]}
	]` + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(generatorResponse(body)))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL, APIKey: "test-key"})

	got, err := g.GenerateBatch(context.Background(), "easy", 5)
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("challenges = %d, want 2 (malformed entry skipped)", len(got))
	}
	for _, ch := range got {
		if ch.Source != "generator" {
			t.Errorf("challenge %q Source = %q, want generator", ch.Title, ch.Source)
		}
		if ch.Difficulty != "easy" {
			t.Errorf("challenge %q Difficulty = %q, want easy", ch.Title, ch.Difficulty)
		}
	}
}

func TestGenerator_GenerateBatchNotAnArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(generatorResponse(`{"title":"single"}`)))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL, APIKey: "test-key"})

	_, err := g.GenerateBatch(context.Background(), "easy", 3)
	if !appErr.Is(err, appErr.ChallengeMalformed) {
		t.Errorf("error code = %v, want ChallengeMalformed", appErr.GetCode(err))
	}
}

func TestGenerator_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL, APIKey: "test-key"})

	_, err := g.Generate(context.Background(), "easy")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !appErr.Is(err, appErr.ChallengeSourceUnavailable) {
		t.Errorf("error code = %v, want ChallengeSourceUnavailable", appErr.GetCode(err))
	}
}

func TestGenerator_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL, APIKey: "test-key"})

	if _, err := g.Generate(context.Background(), "easy"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestGenerator_DisabledWithoutKey(t *testing.T) {
	g := NewGenerator(GeneratorConfig{})

	if g.Enabled() {
		t.Error("Enabled() = true without an API key")
	}
	if _, err := g.Generate(context.Background(), "easy"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}
