package challenge

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	enabled   bool
	challenge *Challenge
	batch     []Challenge
	err       error
	calls     int
}

func (f *fakeProvider) Enabled() bool { return f.enabled }

func (f *fakeProvider) Generate(context.Context, string) (*Challenge, error) {
	f.calls++
	return f.challenge, f.err
}

func (f *fakeProvider) GenerateBatch(context.Context, string, int) ([]Challenge, error) {
	f.calls++
	return f.batch, f.err
}

func TestSource_PrefersProvider(t *testing.T) {
	want := &Challenge{ID: "gen-1", Title: "Generated", Description: "d",
		TestCases: []TestCase{{Input: "a", ExpectedOutput: "b"}}, Source: "generator"}
	src := NewSource(&fakeProvider{enabled: true, challenge: want}, 1)

	got, err := src.Get(context.Background(), "easy")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ID != "gen-1" || got.Source != "generator" {
		t.Errorf("got challenge %q from %q, want generated one", got.ID, got.Source)
	}
}

func TestSource_FallsBackOnProviderError(t *testing.T) {
	provider := &fakeProvider{enabled: true, err: errors.New("upstream down")}
	src := NewSource(provider, 1)

	got, err := src.Get(context.Background(), "easy")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Source != "fallback" {
		t.Errorf("Source = %q, want fallback", got.Source)
	}
	if got.Difficulty != "easy" {
		t.Errorf("Difficulty = %q, want easy", got.Difficulty)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestSource_DisabledProviderSkipped(t *testing.T) {
	provider := &fakeProvider{enabled: false}
	src := NewSource(provider, 1)

	got, err := src.Get(context.Background(), "medium")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Source != "fallback" {
		t.Errorf("Source = %q, want fallback", got.Source)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}

func TestSource_UnknownDifficultyServesSomething(t *testing.T) {
	src := NewSource(nil, 1)

	got, err := src.Get(context.Background(), "impossible")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got == nil || len(got.TestCases) == 0 {
		t.Fatal("expected a playable challenge for unknown difficulty")
	}
}

func TestSource_List(t *testing.T) {
	src := NewSource(nil, 1)
	ctx := context.Background()

	easy := src.List(ctx, "easy", 10)
	if len(easy) == 0 {
		t.Fatal("expected easy challenges in the built-in set")
	}
	for _, ch := range easy {
		if ch.Difficulty != "easy" {
			t.Errorf("List(easy) returned difficulty %q", ch.Difficulty)
		}
	}

	limited := src.List(ctx, "", 2)
	if len(limited) != 2 {
		t.Errorf("List with limit 2 returned %d", len(limited))
	}
}

func TestSource_ListPrefersGeneratedBatch(t *testing.T) {
	batch := []Challenge{
		{ID: "gen-a", Title: "A", Description: "d", Difficulty: "easy", Source: "generator",
			TestCases: []TestCase{{Input: "1", ExpectedOutput: "1"}}},
		{ID: "gen-b", Title: "B", Description: "d", Difficulty: "easy", Source: "generator",
			TestCases: []TestCase{{Input: "2", ExpectedOutput: "2"}}},
	}
	src := NewSource(&fakeProvider{enabled: true, batch: batch}, 1)

	got := src.List(context.Background(), "easy", 10)
	if len(got) != 2 || got[0].ID != "gen-a" {
		t.Fatalf("List returned %d challenges, want the generated batch", len(got))
	}
}

func TestSource_ListFallsBackOnBatchError(t *testing.T) {
	provider := &fakeProvider{enabled: true, err: errors.New("upstream down")}
	src := NewSource(provider, 1)

	got := src.List(context.Background(), "easy", 10)
	if len(got) == 0 {
		t.Fatal("expected fallback challenges when the batch fails")
	}
	for _, ch := range got {
		if ch.Source != "fallback" {
			t.Errorf("challenge %q came from %q, want fallback", ch.ID, ch.Source)
		}
	}
}

func TestSource_ByID(t *testing.T) {
	src := NewSource(nil, 1)

	all := src.List(context.Background(), "", 0)
	if len(all) == 0 {
		t.Fatal("built-in set is empty")
	}

	got, err := src.ByID(all[0].ID)
	if err != nil {
		t.Fatalf("ByID returned error: %v", err)
	}
	if got.ID != all[0].ID {
		t.Errorf("ByID returned %q, want %q", got.ID, all[0].ID)
	}

	if _, err := src.ByID("nope"); err == nil {
		t.Error("Expected error for unknown id, got nil")
	}
}
