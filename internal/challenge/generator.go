package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErr "codeduel/pkg/errors"
)

// GeneratorConfig configures the upstream generation API.
type GeneratorConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// Generator produces challenges from a hosted language-model API speaking
// the generateContent protocol. It is best-effort: any upstream failure
// surfaces as ChallengeSourceUnavailable and the caller falls back to the
// built-in set.
type Generator struct {
	cfg    GeneratorConfig
	client *http.Client
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Generator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the generator has credentials to work with.
func (g *Generator) Enabled() bool {
	return g.cfg.APIKey != ""
}

const challengePrompt = `Generate a competitive programming challenge of %s difficulty.
Respond with a single JSON object and nothing else, using exactly this shape:
{
  "title": "...",
  "description": "...",
  "difficulty": "%s",
  "inputSpec": "...",
  "outputSpec": "...",
  "examples": [{"input": "...", "output": "...", "explanation": "..."}],
  "testCases": [{"input": "...", "expectedOutput": "..."}]
}
Include at least 4 testCases. Inputs are read from stdin, outputs written to stdout.
All input and expectedOutput values must be plain strings.`

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate requests one fresh challenge of the given difficulty.
func (g *Generator) Generate(ctx context.Context, difficulty string) (*Challenge, error) {
	text, err := g.call(ctx, fmt.Sprintf(challengePrompt, difficulty, difficulty))
	if err != nil {
		return nil, err
	}
	ch, err := ParseChallenge([]byte(text))
	if err != nil {
		return nil, err
	}
	if ch.Difficulty == "" {
		ch.Difficulty = difficulty
	}
	ch.Source = "generator"
	return ch, nil
}

const batchPrompt = `Generate %d distinct competitive programming challenges of %s difficulty.
Respond with a single JSON array of challenge objects and nothing else. Each object uses exactly this shape:
{
  "title": "...",
  "description": "...",
  "difficulty": "%s",
  "inputSpec": "...",
  "outputSpec": "...",
  "examples": [{"input": "...", "output": "...", "explanation": "..."}],
  "testCases": [{"input": "...", "expectedOutput": "..."}]
}
Include at least 4 testCases per challenge. Inputs are read from stdin, outputs written to stdout.
All input and expectedOutput values must be plain strings.`

// GenerateBatch requests several challenges in one call, for practice
// listings. Malformed entries within an otherwise valid array are skipped.
func (g *Generator) GenerateBatch(ctx context.Context, difficulty string, n int) ([]Challenge, error) {
	if n <= 0 {
		n = 3
	}
	text, err := g.call(ctx, fmt.Sprintf(batchPrompt, n, difficulty, difficulty))
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, appErr.Wrap(err, appErr.ChallengeMalformed)
	}
	out := make([]Challenge, 0, len(items))
	for _, item := range items {
		ch, err := ParseChallenge(item)
		if err != nil {
			continue
		}
		if ch.Difficulty == "" {
			ch.Difficulty = difficulty
		}
		ch.Source = "generator"
		out = append(out, *ch)
	}
	if len(out) == 0 {
		return nil, appErr.Newf(appErr.ChallengeMalformed, "generator batch contained no valid challenges")
	}
	return out, nil
}

// call performs one generateContent request and returns the fence-stripped
// response text.
func (g *Generator) call(ctx context.Context, prompt string) (string, error) {
	if !g.Enabled() {
		return "", appErr.New(appErr.ChallengeSourceUnavailable)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", appErr.Wrap(err, appErr.ChallengeSourceUnavailable)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", appErr.Wrap(err, appErr.ChallengeSourceUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", appErr.Wrap(err, appErr.ChallengeSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", appErr.Newf(appErr.ChallengeSourceUnavailable,
			"generator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", appErr.Wrap(err, appErr.ChallengeSourceUnavailable)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", appErr.Newf(appErr.ChallengeSourceUnavailable, "generator returned no candidates")
	}
	return stripFences(gr.Candidates[0].Content.Parts[0].Text), nil
}

// stripFences removes a surrounding markdown code fence; generators wrap
// their JSON in ```json blocks regardless of instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
