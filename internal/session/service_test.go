package session

import (
	"context"
	"testing"

	"codeduel/internal/challenge"
	"codeduel/internal/judge"
	"codeduel/internal/sandbox"
	appErr "codeduel/pkg/errors"
)

type fakeExecutor struct {
	last sandbox.Request
}

func (f *fakeExecutor) Execute(_ context.Context, req sandbox.Request) sandbox.Result {
	f.last = req
	return sandbox.Result{Status: sandbox.StatusAccepted, Stdout: "ok"}
}

type fakeSource struct {
	list []challenge.Challenge
}

func (f *fakeSource) List(_ context.Context, difficulty string, limit int) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(f.list))
	for _, ch := range f.list {
		if difficulty != "" && ch.Difficulty != difficulty {
			continue
		}
		out = append(out, ch)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (f *fakeSource) ByID(id string) (*challenge.Challenge, error) {
	for i := range f.list {
		if f.list[i].ID == id {
			ch := f.list[i]
			return &ch, nil
		}
	}
	return nil, appErr.New(appErr.ChallengeNotFound)
}

type passJudge struct {
	validated []string
}

func (j *passJudge) Validate(_ context.Context, _, _ string, ch *challenge.Challenge) judge.Verdict {
	j.validated = append(j.validated, ch.ID)
	return judge.Verdict{Passed: true, PassedCount: 1, TotalCount: 1}
}

func newTestService(t *testing.T) (*Service, *fakeExecutor, *passJudge) {
	t.Helper()
	exec := &fakeExecutor{}
	j := &passJudge{}
	src := &fakeSource{list: []challenge.Challenge{
		{ID: "c1", Title: "One", Description: "d", Difficulty: "easy",
			TestCases: []challenge.TestCase{{Input: "a", ExpectedOutput: "a"}}},
		{ID: "c2", Title: "Two", Description: "d", Difficulty: "hard",
			TestCases: []challenge.TestCase{{Input: "b", ExpectedOutput: "b"}}},
	}}
	svc, err := NewService(ServiceConfig{Executor: exec, Source: src, Judge: j})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, exec, j
}

func TestExecute_PassesThrough(t *testing.T) {
	svc, exec, _ := newTestService(t)

	res := svc.Execute(context.Background(), "print(1)", "python", "stdin data")

	if res.Status != sandbox.StatusAccepted {
		t.Errorf("Status = %v, want Accepted", res.Status)
	}
	if exec.last.Code != "print(1)" || exec.last.Stdin != "stdin data" {
		t.Errorf("executor saw %+v", exec.last)
	}
}

func TestChallenges_FiltersAndServes(t *testing.T) {
	svc, _, _ := newTestService(t)

	list, err := svc.Challenges(context.Background(), "conn1", "easy", 10)
	if err != nil {
		t.Fatalf("Challenges returned error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "c1" {
		t.Errorf("list = %v, want only c1", list)
	}
}

func TestChallenges_NoneAvailable(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Challenges(context.Background(), "conn1", "medium", 10)
	if !appErr.Is(err, appErr.PracticeSetExhausted) {
		t.Errorf("error = %v, want PracticeSetExhausted", err)
	}
}

func TestSubmit_UsesServedChallenge(t *testing.T) {
	svc, _, j := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Challenges(ctx, "conn1", "easy", 10); err != nil {
		t.Fatalf("Challenges returned error: %v", err)
	}

	res, err := svc.Submit(ctx, "conn1", "c1", "code", "python")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !res.Verdict.Passed {
		t.Error("Verdict.Passed = false, want true")
	}
	if len(j.validated) != 1 || j.validated[0] != "c1" {
		t.Errorf("judge validated %v, want [c1]", j.validated)
	}
}

func TestSubmit_ResolvesByIDWhenNotServed(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Submit(context.Background(), "conn1", "c2", "code", "python")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.ChallengeID != "c2" {
		t.Errorf("ChallengeID = %q, want c2", res.ChallengeID)
	}
}

func TestSubmit_UnknownChallenge(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), "conn1", "nope", "code", "python")
	if !appErr.Is(err, appErr.PracticeSubmitInvalid) {
		t.Errorf("error = %v, want PracticeSubmitInvalid", err)
	}
}

func TestSubmit_EmptyChallengeID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), "conn1", "", "code", "python")
	if !appErr.Is(err, appErr.PracticeSubmitInvalid) {
		t.Errorf("error = %v, want PracticeSubmitInvalid", err)
	}
}

func TestDisconnect_DropsCache(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Challenges(ctx, "conn1", "easy", 10); err != nil {
		t.Fatalf("Challenges returned error: %v", err)
	}
	svc.Disconnect("conn1")

	svc.mu.Lock()
	_, ok := svc.served["conn1"]
	svc.mu.Unlock()
	if ok {
		t.Error("served cache survived disconnect")
	}
}
