package challenge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	appErr "codeduel/pkg/errors"

	"github.com/google/uuid"
)

// FlexString decodes JSON that upstream generators emit inconsistently:
// plain strings pass through, numbers and booleans are stringified, and
// arrays are flattened one element per line. This happens at ingestion so
// the rest of the system only ever sees strings.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s, err := flatten(raw)
	if err != nil {
		return err
	}
	*f = FlexString(s)
	return nil
}

func flatten(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			s, err := flatten(elem)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", raw)
	}
}

// TestCase is one hidden input/output pair.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Example is a visible sample shown to players alongside the statement.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// Challenge is a full problem: statement, visible examples and hidden tests.
// Source records where it came from, "generator" or "fallback".
type Challenge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  string     `json:"difficulty"`
	InputSpec   string     `json:"inputSpec,omitempty"`
	OutputSpec  string     `json:"outputSpec,omitempty"`
	Constraints []string   `json:"constraints,omitempty"`
	Examples    []Example  `json:"examples,omitempty"`
	TestCases   []TestCase `json:"testCases"`
	// TimeLimitSec bounds the whole duel round; zero means the server
	// default applies.
	TimeLimitSec int               `json:"timeLimitSec,omitempty"`
	Boilerplate  map[string]string `json:"boilerplate,omitempty"`
	Source       string            `json:"source,omitempty"`
}

// rawChallenge is the tolerant wire shape used when decoding generator output.
type rawChallenge struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description FlexString            `json:"description"`
	Difficulty  string                `json:"difficulty"`
	InputSpec   FlexString            `json:"inputSpec"`
	OutputSpec  FlexString            `json:"outputSpec"`
	Constraints []FlexString          `json:"constraints"`
	Examples    []rawExample          `json:"examples"`
	TestCases   []rawCase             `json:"testCases"`
	TimeLimit   FlexString            `json:"timeLimit"`
	Boilerplate map[string]FlexString `json:"boilerplate"`
}

type rawExample struct {
	Input       FlexString `json:"input"`
	Output      FlexString `json:"output"`
	Explanation FlexString `json:"explanation"`
}

type rawCase struct {
	Input          FlexString `json:"input"`
	ExpectedOutput FlexString `json:"expectedOutput"`
}

// ParseChallenge decodes generator JSON into a validated Challenge.
func ParseChallenge(data []byte) (*Challenge, error) {
	var raw rawChallenge
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, appErr.Wrap(err, appErr.ChallengeMalformed)
	}

	ch := &Challenge{
		ID:          raw.ID,
		Title:       strings.TrimSpace(raw.Title),
		Description: string(raw.Description),
		Difficulty:  strings.ToLower(strings.TrimSpace(raw.Difficulty)),
		InputSpec:   string(raw.InputSpec),
		OutputSpec:  string(raw.OutputSpec),
	}
	for _, c := range raw.Constraints {
		if s := strings.TrimSpace(string(c)); s != "" {
			ch.Constraints = append(ch.Constraints, s)
		}
	}
	// Generators emit time limits as numbers or strings; garbage means the
	// server default.
	if n, err := strconv.Atoi(strings.TrimSpace(string(raw.TimeLimit))); err == nil && n > 0 {
		ch.TimeLimitSec = n
	}
	if len(raw.Boilerplate) > 0 {
		ch.Boilerplate = make(map[string]string, len(raw.Boilerplate))
		for lang, code := range raw.Boilerplate {
			ch.Boilerplate[strings.ToLower(lang)] = string(code)
		}
	}
	for _, ex := range raw.Examples {
		ch.Examples = append(ch.Examples, Example{
			Input:       string(ex.Input),
			Output:      string(ex.Output),
			Explanation: string(ex.Explanation),
		})
	}
	for _, tc := range raw.TestCases {
		ch.TestCases = append(ch.TestCases, TestCase{
			Input:          string(tc.Input),
			ExpectedOutput: string(tc.ExpectedOutput),
		})
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	return ch, nil
}

// Validate checks structural soundness: a challenge without a statement or
// without hidden tests cannot be played.
func (c *Challenge) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return appErr.New(appErr.ChallengeMalformed).WithDetail("reason", "missing title")
	}
	if strings.TrimSpace(c.Description) == "" {
		return appErr.New(appErr.ChallengeMalformed).WithDetail("reason", "missing description")
	}
	if len(c.TestCases) == 0 {
		return appErr.New(appErr.ChallengeMalformed).WithDetail("reason", "no test cases")
	}
	for i, tc := range c.TestCases {
		if tc.ExpectedOutput == "" {
			return appErr.New(appErr.ChallengeMalformed).
				WithDetail("reason", fmt.Sprintf("test case %d has empty expected output", i))
		}
	}
	return nil
}
