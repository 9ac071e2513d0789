// Package session serves single-player operations: free-form code execution
// and practice challenges. State is per connection and evaporates on
// disconnect.
package session

import (
	"context"
	"sync"

	"codeduel/internal/challenge"
	"codeduel/internal/judge"
	"codeduel/internal/sandbox"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/logger"

	"go.uber.org/zap"
)

// PracticeSource lists and resolves practice challenges.
type PracticeSource interface {
	List(ctx context.Context, difficulty string, limit int) []challenge.Challenge
	ByID(id string) (*challenge.Challenge, error)
}

// Judge validates a practice submission.
type Judge interface {
	Validate(ctx context.Context, code, language string, ch *challenge.Challenge) judge.Verdict
}

// PracticeResult is the outcome of a practice submission.
type PracticeResult struct {
	ChallengeID string        `json:"challengeId"`
	Verdict     judge.Verdict `json:"verdict"`
}

// Service handles practice mode. It caches the challenges each connection
// was shown so submissions resolve against exactly what the player saw.
type Service struct {
	executor sandbox.Executor
	source   PracticeSource
	judge    Judge

	mu     sync.Mutex
	served map[string]map[string]*challenge.Challenge
}

// ServiceConfig wires the service's dependencies.
type ServiceConfig struct {
	Executor sandbox.Executor
	Source   PracticeSource
	Judge    Judge
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Executor == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "session service requires an executor")
	}
	if cfg.Source == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "session service requires a practice source")
	}
	if cfg.Judge == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "session service requires a judge")
	}
	return &Service{
		executor: cfg.Executor,
		source:   cfg.Source,
		judge:    cfg.Judge,
		served:   make(map[string]map[string]*challenge.Challenge),
	}, nil
}

// Execute runs code with caller-supplied stdin, no challenge involved.
func (s *Service) Execute(ctx context.Context, code, language, stdin string) sandbox.Result {
	return s.executor.Execute(ctx, sandbox.Request{
		Code:     code,
		Language: language,
		Stdin:    stdin,
	})
}

// Challenges returns practice challenges for a connection and remembers
// which ones it was handed.
func (s *Service) Challenges(ctx context.Context, connID, difficulty string, limit int) ([]challenge.Challenge, error) {
	if limit <= 0 {
		limit = 10
	}
	list := s.source.List(ctx, difficulty, limit)
	if len(list) == 0 {
		return nil, appErr.New(appErr.PracticeSetExhausted)
	}

	s.mu.Lock()
	cache := s.served[connID]
	if cache == nil {
		cache = make(map[string]*challenge.Challenge)
		s.served[connID] = cache
	}
	for i := range list {
		ch := list[i]
		cache[ch.ID] = &ch
	}
	s.mu.Unlock()

	logger.Debug(ctx, "practice challenges served",
		zap.String("connection_id", connID), zap.Int("count", len(list)))
	return list, nil
}

// Submit validates a practice solution against a challenge the connection
// was previously shown, falling back to the stable set by ID.
func (s *Service) Submit(ctx context.Context, connID, challengeID, code, language string) (*PracticeResult, error) {
	if challengeID == "" {
		return nil, appErr.New(appErr.PracticeSubmitInvalid)
	}

	s.mu.Lock()
	ch := s.served[connID][challengeID]
	s.mu.Unlock()

	if ch == nil {
		resolved, err := s.source.ByID(challengeID)
		if err != nil {
			return nil, appErr.New(appErr.PracticeSubmitInvalid)
		}
		ch = resolved
	}

	verdict := s.judge.Validate(ctx, code, language, ch)
	return &PracticeResult{ChallengeID: challengeID, Verdict: verdict}, nil
}

// Disconnect drops everything cached for a connection.
func (s *Service) Disconnect(connID string) {
	s.mu.Lock()
	delete(s.served, connID)
	s.mu.Unlock()
}
