package judge

import (
	"context"
	"strings"

	"codeduel/internal/challenge"
	"codeduel/internal/sandbox"
	"codeduel/pkg/utils/logger"

	"go.uber.org/zap"
)

// CaseResult is the outcome of one hidden test case.
type CaseResult struct {
	Index    int            `json:"index"`
	Passed   bool           `json:"passed"`
	Status   sandbox.Status `json:"status"`
	Input    string         `json:"input"`
	Expected string         `json:"expected"`
	Actual   string         `json:"actual"`
	Error    string         `json:"error,omitempty"`
}

// Verdict aggregates a full validation run over all test cases.
type Verdict struct {
	Passed      bool         `json:"passed"`
	PassedCount int          `json:"passedCount"`
	TotalCount  int          `json:"totalCount"`
	Cases       []CaseResult `json:"cases"`
}

// Validator checks a submission against a challenge's hidden test cases.
type Validator struct {
	executor sandbox.Executor
}

func NewValidator(executor sandbox.Executor) *Validator {
	return &Validator{executor: executor}
}

// Validate runs the submission against every test case in declaration order.
// All cases run even after a failure so the caller gets a complete picture.
// Output comparison is exact after trimming leading and trailing whitespace
// from both sides.
func (v *Validator) Validate(ctx context.Context, code, language string, ch *challenge.Challenge) Verdict {
	verdict := Verdict{
		TotalCount: len(ch.TestCases),
		Cases:      make([]CaseResult, 0, len(ch.TestCases)),
	}

	for i, tc := range ch.TestCases {
		res := v.executor.Execute(ctx, sandbox.Request{
			Code:     code,
			Language: language,
			Stdin:    tc.Input,
		})

		cr := CaseResult{
			Index:    i,
			Status:   res.Status,
			Input:    tc.Input,
			Expected: tc.ExpectedOutput,
			Actual:   res.Stdout,
			Error:    res.Error,
		}
		if res.Status == sandbox.StatusAccepted {
			cr.Passed = strings.TrimSpace(res.Stdout) == strings.TrimSpace(tc.ExpectedOutput)
		}
		if cr.Passed {
			verdict.PassedCount++
		} else {
			logger.Debug(ctx, "test case failed",
				zap.Int("case", i),
				zap.String("status", string(res.Status)))
		}
		verdict.Cases = append(verdict.Cases, cr)
	}

	verdict.Passed = verdict.TotalCount > 0 && verdict.PassedCount == verdict.TotalCount
	return verdict
}
