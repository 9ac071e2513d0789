package judge

import (
	"context"
	"testing"

	"codeduel/internal/challenge"
	"codeduel/internal/sandbox"
)

// fakeExecutor returns canned results keyed by stdin and records every call.
type fakeExecutor struct {
	results map[string]sandbox.Result
	calls   []string
}

func (f *fakeExecutor) Execute(_ context.Context, req sandbox.Request) sandbox.Result {
	f.calls = append(f.calls, req.Stdin)
	if res, ok := f.results[req.Stdin]; ok {
		return res
	}
	return sandbox.Result{Status: sandbox.StatusAccepted, Stdout: ""}
}

func testChallenge() *challenge.Challenge {
	return &challenge.Challenge{
		ID:          "t1",
		Title:       "Echo",
		Description: "Echo the input.",
		TestCases: []challenge.TestCase{
			{Input: "a", ExpectedOutput: "a"},
			{Input: "b", ExpectedOutput: "b"},
			{Input: "c", ExpectedOutput: "c"},
		},
	}
}

func TestValidate_AllPass(t *testing.T) {
	exec := &fakeExecutor{results: map[string]sandbox.Result{
		"a": {Status: sandbox.StatusAccepted, Stdout: "a\n"},
		"b": {Status: sandbox.StatusAccepted, Stdout: "  b  "},
		"c": {Status: sandbox.StatusAccepted, Stdout: "c"},
	}}
	v := NewValidator(exec)

	verdict := v.Validate(context.Background(), "code", "python", testChallenge())

	if !verdict.Passed {
		t.Error("Passed = false, want true")
	}
	if verdict.PassedCount != 3 || verdict.TotalCount != 3 {
		t.Errorf("counts = %d/%d, want 3/3", verdict.PassedCount, verdict.TotalCount)
	}
}

func TestValidate_NoShortCircuit(t *testing.T) {
	exec := &fakeExecutor{results: map[string]sandbox.Result{
		"a": {Status: sandbox.StatusAccepted, Stdout: "wrong"},
		"b": {Status: sandbox.StatusAccepted, Stdout: "b"},
		"c": {Status: sandbox.StatusAccepted, Stdout: "c"},
	}}
	v := NewValidator(exec)

	verdict := v.Validate(context.Background(), "code", "python", testChallenge())

	if verdict.Passed {
		t.Error("Passed = true, want false")
	}
	if len(exec.calls) != 3 {
		t.Errorf("executions = %d, want 3 (all cases run even after a failure)", len(exec.calls))
	}
	if verdict.PassedCount != 2 {
		t.Errorf("PassedCount = %d, want 2", verdict.PassedCount)
	}
	if verdict.Cases[0].Passed || !verdict.Cases[1].Passed {
		t.Error("per-case results do not match executor outcomes")
	}
}

func TestValidate_CaseOrder(t *testing.T) {
	exec := &fakeExecutor{}
	v := NewValidator(exec)

	v.Validate(context.Background(), "code", "python", testChallenge())

	want := []string{"a", "b", "c"}
	for i, stdin := range want {
		if exec.calls[i] != stdin {
			t.Fatalf("call %d ran with stdin %q, want %q", i, exec.calls[i], stdin)
		}
	}
}

func TestValidate_NonAcceptedNeverPasses(t *testing.T) {
	tests := []struct {
		name   string
		status sandbox.Status
	}{
		{"runtime error", sandbox.StatusRuntimeError},
		{"timeout", sandbox.StatusTimeLimitExceeded},
		{"compile error", sandbox.StatusCompilationError},
		{"internal error", sandbox.StatusInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{results: map[string]sandbox.Result{
				// Output matches expected, but the run did not succeed.
				"a": {Status: tt.status, Stdout: "a"},
			}}
			v := NewValidator(exec)

			verdict := v.Validate(context.Background(), "code", "python", testChallenge())

			if verdict.Cases[0].Passed {
				t.Errorf("case with status %v passed, want failed", tt.status)
			}
		})
	}
}

func TestValidate_EmptyChallenge(t *testing.T) {
	v := NewValidator(&fakeExecutor{})

	verdict := v.Validate(context.Background(), "code", "python", &challenge.Challenge{})

	if verdict.Passed {
		t.Error("Passed = true for zero test cases, want false")
	}
}
