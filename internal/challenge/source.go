package challenge

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/logger"

	"go.uber.org/zap"
)

// Provider produces challenges. The Generator satisfies it; tests use fakes.
type Provider interface {
	Enabled() bool
	Generate(ctx context.Context, difficulty string) (*Challenge, error)
	GenerateBatch(ctx context.Context, difficulty string, n int) ([]Challenge, error)
}

// Source hands out challenges, preferring the generator and falling back to
// the built-in set when it is disabled or fails. Getting a challenge never
// fails outright as long as a difficulty has fallback entries.
type Source struct {
	provider Provider

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSource(provider Provider, seed int64) *Source {
	return &Source{
		provider: provider,
		rand:     rand.New(rand.NewSource(seed)),
	}
}

// Get returns one challenge of the given difficulty. An empty or unknown
// difficulty means any difficulty is acceptable.
func (s *Source) Get(ctx context.Context, difficulty string) (*Challenge, error) {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))

	if s.provider != nil && s.provider.Enabled() {
		ch, err := s.provider.Generate(ctx, difficultyOrDefault(difficulty))
		if err == nil {
			return ch, nil
		}
		logger.Warn(ctx, "challenge generator failed, using fallback set",
			zap.String("difficulty", difficulty), zap.Error(err))
	}

	return s.pickFallback(difficulty)
}

// List returns up to limit challenges for practice browsing, preferring a
// freshly generated batch and falling back to the built-in set. Generated IDs
// only resolve through the caller's session cache; ByID covers the rest.
func (s *Source) List(ctx context.Context, difficulty string, limit int) []Challenge {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))

	if s.provider != nil && s.provider.Enabled() {
		batch, err := s.provider.GenerateBatch(ctx, difficultyOrDefault(difficulty), limit)
		if err == nil && len(batch) > 0 {
			if limit > 0 && len(batch) > limit {
				batch = batch[:limit]
			}
			return batch
		}
		logger.Warn(ctx, "challenge generator failed, listing fallback set",
			zap.String("difficulty", difficulty), zap.Error(err))
	}

	out := make([]Challenge, 0, limit)
	for _, ch := range fallbackChallenges {
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

// ByID resolves a challenge from the built-in set.
func (s *Source) ByID(id string) (*Challenge, error) {
	for i := range fallbackChallenges {
		if fallbackChallenges[i].ID == id {
			ch := fallbackChallenges[i]
			return &ch, nil
		}
	}
	return nil, appErr.New(appErr.ChallengeNotFound)
}

func (s *Source) pickFallback(difficulty string) (*Challenge, error) {
	candidates := make([]int, 0, len(fallbackChallenges))
	for i, ch := range fallbackChallenges {
		if difficulty == "" || ch.Difficulty == difficulty {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		// Unknown difficulty: serve anything rather than block the duel.
		for i := range fallbackChallenges {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, appErr.New(appErr.PracticeSetExhausted)
	}

	s.mu.Lock()
	idx := candidates[s.rand.Intn(len(candidates))]
	s.mu.Unlock()

	ch := fallbackChallenges[idx]
	return &ch, nil
}

func difficultyOrDefault(d string) string {
	switch d {
	case "easy", "medium", "hard":
		return d
	default:
		return "medium"
	}
}
