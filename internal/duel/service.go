package duel

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"codeduel/internal/archive"
	"codeduel/internal/challenge"
	"codeduel/internal/judge"
	"codeduel/internal/room"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChallengeSource yields challenges for new games and rematches.
type ChallengeSource interface {
	Get(ctx context.Context, difficulty string) (*challenge.Challenge, error)
}

// Judge validates a submission against a challenge.
type Judge interface {
	Validate(ctx context.Context, code, language string, ch *challenge.Challenge) judge.Verdict
}

// RoomStore is the persistence surface the duel service needs.
type RoomStore interface {
	Create(ctx context.Context, r *room.Room) error
	Get(ctx context.Context, roomID string) (*room.Room, error)
	AppendPlayer(ctx context.Context, roomID string, p room.Player) (int, bool, error)
	SetStarted(ctx context.Context, roomID string, at time.Time) error
	SetFinished(ctx context.Context, roomID, winnerID string, at time.Time) error
	SaveSolution(ctx context.Context, roomID, playerID string, sol room.Solution) error
	Reset(ctx context.Context, roomID string, newChallenge []byte, difficulty string) error
}

// Config tunes game timing.
type Config struct {
	// GameDuration bounds a round; expiry ends it as a draw.
	GameDuration time.Duration `yaml:"gameDuration"`
	// RematchWindow is how long after game over both players can agree to
	// a rematch.
	RematchWindow time.Duration `yaml:"rematchWindow"`
	MaxCodeBytes  int           `yaml:"maxCodeBytes"`
}

func (c *Config) applyDefaults() {
	if c.GameDuration <= 0 {
		c.GameDuration = 10 * time.Minute
	}
	if c.RematchWindow <= 0 {
		c.RematchWindow = 10 * time.Second
	}
	if c.MaxCodeBytes <= 0 {
		c.MaxCodeBytes = 64 << 10
	}
}

// game is the in-memory runtime state of one room. Its mutex serializes
// winner declaration; everything that can end or restart the game runs
// under it.
type game struct {
	mu         sync.Mutex
	state      room.State
	players    []room.Player
	difficulty string

	deadline *time.Timer

	rematchVotes map[string]bool
	rematchTimer *time.Timer
	rematchOpen  bool
	// rematchDifficulty overrides the room difficulty for the next round
	// when a rematch vote asked for one.
	rematchDifficulty string
}

// Service runs the duel state machine: room lifecycle, first-to-pass winner
// declaration, round countdown and rematch negotiation.
type Service struct {
	store    RoomStore
	source   ChallengeSource
	judge    Judge
	notifier Notifier
	archiver *archive.Archiver
	cfg      Config

	mu    sync.RWMutex
	games map[string]*game
	// member rooms per connection, for disconnect broadcasts
	membership map[string]map[string]struct{}
}

// ServiceConfig wires the service's dependencies.
type ServiceConfig struct {
	Store    RoomStore
	Source   ChallengeSource
	Judge    Judge
	Notifier Notifier
	Archiver *archive.Archiver
	Config   Config
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "duel service requires a room store")
	}
	if cfg.Source == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "duel service requires a challenge source")
	}
	if cfg.Judge == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "duel service requires a judge")
	}
	if cfg.Notifier == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "duel service requires a notifier")
	}
	cfg.Config.applyDefaults()
	return &Service{
		store:      cfg.Store,
		source:     cfg.Source,
		judge:      cfg.Judge,
		notifier:   cfg.Notifier,
		archiver:   cfg.Archiver,
		cfg:        cfg.Config,
		games:      make(map[string]*game),
		membership: make(map[string]map[string]struct{}),
	}, nil
}

// CreateRoom makes a new room with the creator as its first player and a
// challenge already attached, so the game can start the moment an opponent
// joins.
func (s *Service) CreateRoom(ctx context.Context, creator room.Player, difficulty string) (*room.Room, error) {
	if creator.ID == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "player id is required")
	}

	ch, err := s.source.Get(ctx, difficulty)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.RoomCreateFailed)
	}

	r := &room.Room{
		ID:         shortRoomID(),
		Challenge:  ch,
		Difficulty: difficulty,
		Players:    []room.Player{creator},
		Solutions:  make(map[string]room.Solution),
		State:      room.StateWaiting,
		CreatedAt:  time.Now(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, appErr.Wrap(err, appErr.RoomCreateFailed)
	}

	s.mu.Lock()
	s.games[r.ID] = &game{state: room.StateWaiting, players: r.Players, difficulty: difficulty}
	s.joinMembership(creator.ID, r.ID)
	s.mu.Unlock()

	s.notifier.ToPlayer(creator.ID, EventRoomCreated, RoomCreatedPayload{
		RoomID:     r.ID,
		Challenge:  r.Challenge,
		Source:     ch.Source,
		Difficulty: difficulty,
	})
	logger.Info(ctx, "room created",
		zap.String("room_id", r.ID), zap.String("player_id", creator.ID))
	return r, nil
}

// JoinRoom adds a player. Joining a room you are already in is an idempotent
// re-acknowledgement. The second distinct player starts the game.
func (s *Service) JoinRoom(ctx context.Context, roomID string, p room.Player) error {
	if p.ID == "" || roomID == "" {
		return appErr.Newf(appErr.InvalidParams, "room id and player id are required")
	}

	count, already, err := s.store.AppendPlayer(ctx, roomID, p)
	if err != nil {
		return err
	}

	r, err := s.store.Get(ctx, roomID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	g, ok := s.games[roomID]
	if !ok {
		// Room survived a server restart in redis; rebuild runtime state.
		g = &game{state: r.State, players: r.Players, difficulty: r.Difficulty}
		s.games[roomID] = g
	}
	s.joinMembership(p.ID, roomID)
	s.mu.Unlock()

	// Full state replay, so a reconnecting player resumes a running game
	// from this one event.
	s.notifier.ToPlayer(p.ID, EventRoomJoined, RoomJoinedPayload{
		RoomID:     roomID,
		Challenge:  r.Challenge,
		Players:    r.Players,
		State:      r.State,
		StartedAt:  r.StartedAt,
		Difficulty: r.Difficulty,
	})
	if already {
		return nil
	}

	s.notifier.ToRoom(roomID, EventRoomUpdate, RoomUpdatePayload{
		RoomID:  roomID,
		Players: r.Players,
		State:   r.State,
	})

	if count == 2 {
		return s.startGame(ctx, r, g)
	}
	return nil
}

func (s *Service) startGame(ctx context.Context, r *room.Room, g *game) error {
	now := time.Now()
	if err := s.store.SetStarted(ctx, r.ID, now); err != nil {
		return err
	}

	duration := s.cfg.GameDuration
	if r.Challenge != nil && r.Challenge.TimeLimitSec > 0 {
		duration = time.Duration(r.Challenge.TimeLimitSec) * time.Second
	}

	g.mu.Lock()
	g.state = room.StateStarted
	g.players = r.Players
	g.deadline = time.AfterFunc(duration, func() { s.timeout(r.ID) })
	g.mu.Unlock()

	s.notifier.ToRoom(r.ID, EventGameStart, GameStartPayload{
		RoomID:    r.ID,
		Challenge: r.Challenge,
		StartedAt: now,
		Deadline:  now.Add(duration),
	})
	logger.Info(ctx, "game started", zap.String("room_id", r.ID))
	return nil
}

// Submit validates a player's solution. The first passing submission wins;
// everything after the game ends is rejected. Validation runs outside the
// game lock so a slow sandbox never blocks the room.
func (s *Service) Submit(ctx context.Context, roomID, playerID, code, language string) error {
	if len(code) > s.cfg.MaxCodeBytes {
		return appErr.New(appErr.CodeTooLarge)
	}

	r, err := s.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if !r.HasPlayer(playerID) {
		return appErr.New(appErr.GameNotStarted)
	}

	g := s.game(roomID)
	if g == nil || !g.isStarted() {
		return appErr.New(appErr.GameNotStarted)
	}

	verdict := s.judge.Validate(ctx, code, language, r.Challenge)

	sol := room.Solution{
		Code:        code,
		Language:    language,
		Passed:      verdict.Passed,
		SubmittedAt: time.Now(),
	}
	if err := s.store.SaveSolution(ctx, roomID, playerID, sol); err != nil {
		logger.Warn(ctx, "solution persist failed",
			zap.String("room_id", roomID), zap.Error(err))
	}

	if !verdict.Passed {
		s.notifier.ToPlayer(playerID, EventSubmissionResult, SubmissionResultPayload{
			RoomID:  roomID,
			Passed:  false,
			Verdict: verdict,
		})
		return nil
	}

	// Winner declaration happens under the game lock: exactly one passing
	// submission may transition STARTED to FINISHED. A passing submission
	// that lost the race reads the same as any other post-game submit.
	g.mu.Lock()
	if g.state != room.StateStarted {
		g.mu.Unlock()
		return appErr.New(appErr.GameNotStarted)
	}
	g.state = room.StateFinished
	if g.deadline != nil {
		g.deadline.Stop()
	}
	winnerName := playerName(g.players, playerID)
	g.mu.Unlock()

	now := time.Now()
	if err := s.store.SetFinished(ctx, roomID, playerID, now); err != nil {
		logger.Error(ctx, "finish persist failed",
			zap.String("room_id", roomID), zap.Error(err))
	}

	final := s.finalRoom(ctx, roomID)
	s.notifier.ToRoom(roomID, EventGameOver, GameOverPayload{
		RoomID:     roomID,
		WinnerID:   playerID,
		WinnerName: winnerName,
		Reason:     ReasonSolved,
		Verdict:    &verdict,
		Solutions:  roomSolutions(final),
	})
	logger.Info(ctx, "game won",
		zap.String("room_id", roomID), zap.String("winner_id", playerID))

	s.afterFinish(roomID, g, final)
	return nil
}

// finalRoom reloads the room after the outcome was persisted, so the game
// over broadcast and the archive see every saved solution. Best-effort.
func (s *Service) finalRoom(ctx context.Context, roomID string) *room.Room {
	r, err := s.store.Get(ctx, roomID)
	if err != nil {
		logger.Warn(ctx, "final room load failed",
			zap.String("room_id", roomID), zap.Error(err))
		return nil
	}
	return r
}

func roomSolutions(r *room.Room) map[string]room.Solution {
	if r == nil {
		return nil
	}
	return r.Solutions
}

// timeout fires when the round clock expires. The game ends as a draw.
func (s *Service) timeout(roomID string) {
	g := s.game(roomID)
	if g == nil {
		return
	}

	g.mu.Lock()
	if g.state != room.StateStarted {
		g.mu.Unlock()
		return
	}
	g.state = room.StateFinished
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.SetFinished(ctx, roomID, "", time.Now()); err != nil {
		logger.Error(ctx, "timeout finish persist failed",
			zap.String("room_id", roomID), zap.Error(err))
	}

	final := s.finalRoom(ctx, roomID)
	s.notifier.ToRoom(roomID, EventGameOver, GameOverPayload{
		RoomID:    roomID,
		Reason:    ReasonTimeout,
		Solutions: roomSolutions(final),
	})
	logger.Info(ctx, "game timed out", zap.String("room_id", roomID))

	s.afterFinish(roomID, g, final)
}

// afterFinish archives the final room document and opens the rematch window.
func (s *Service) afterFinish(roomID string, g *game, final *room.Room) {
	if final != nil {
		s.archiver.Archive(final)
	}

	g.mu.Lock()
	g.rematchVotes = make(map[string]bool)
	g.rematchOpen = true
	g.rematchDifficulty = ""
	g.rematchTimer = time.AfterFunc(s.cfg.RematchWindow, func() { s.expireRematch(roomID) })
	g.mu.Unlock()
}

// RequestRematch records a player's vote. A non-empty difficulty asks for a
// different difficulty next round; the last such request wins. When both
// players vote inside the window, a fresh challenge is drawn and the game
// restarts in place.
func (s *Service) RequestRematch(ctx context.Context, roomID, playerID, difficulty string) error {
	g := s.game(roomID)
	if g == nil {
		return appErr.New(appErr.RoomNotFound)
	}

	g.mu.Lock()
	if !g.rematchOpen || g.state != room.StateFinished {
		g.mu.Unlock()
		return appErr.New(appErr.RematchUnavailable)
	}
	if !hasPlayer(g.players, playerID) {
		g.mu.Unlock()
		return appErr.New(appErr.RematchUnavailable)
	}
	g.rematchVotes[playerID] = true
	if difficulty = strings.ToLower(strings.TrimSpace(difficulty)); difficulty != "" {
		g.rematchDifficulty = difficulty
	}
	next := g.rematchDifficulty
	if next == "" {
		next = g.difficulty
	}
	both := len(g.rematchVotes) == 2
	if both {
		g.rematchOpen = false
		if g.rematchTimer != nil {
			g.rematchTimer.Stop()
		}
	}
	g.mu.Unlock()

	if !both {
		s.notifier.ToRoom(roomID, EventRematchRequested, RematchRequestedPayload{
			RoomID:   roomID,
			PlayerID: playerID,
		})
		return nil
	}
	return s.startRematch(ctx, roomID, g, next)
}

func (s *Service) startRematch(ctx context.Context, roomID string, g *game, difficulty string) error {
	ch, err := s.source.Get(ctx, difficulty)
	if err != nil {
		s.notifier.ToRoom(roomID, EventRematchError, RematchErrorPayload{
			RoomID:  roomID,
			Message: "could not draw a fresh challenge",
		})
		s.dropGame(roomID, g)
		return appErr.Wrap(err, appErr.RematchFailed)
	}
	data, err := json.Marshal(ch)
	if err != nil {
		s.dropGame(roomID, g)
		return appErr.Wrap(err, appErr.RematchFailed)
	}
	if err := s.store.Reset(ctx, roomID, data, difficulty); err != nil {
		s.dropGame(roomID, g)
		return appErr.Wrap(err, appErr.RematchFailed)
	}

	s.notifier.ToRoom(roomID, EventRematchStarting, RematchStartingPayload{RoomID: roomID})

	r, err := s.store.Get(ctx, roomID)
	if err != nil {
		s.dropGame(roomID, g)
		return appErr.Wrap(err, appErr.RematchFailed)
	}

	g.mu.Lock()
	g.difficulty = r.Difficulty
	g.state = room.StateWaiting
	g.mu.Unlock()

	logger.Info(ctx, "rematch starting",
		zap.String("room_id", roomID), zap.String("difficulty", r.Difficulty))
	return s.startGame(ctx, r, g)
}

// DeclineRematch ends the negotiation for both players and retires the game.
func (s *Service) DeclineRematch(ctx context.Context, roomID, playerID string) error {
	g := s.game(roomID)
	if g == nil {
		return appErr.New(appErr.RoomNotFound)
	}

	g.mu.Lock()
	open := g.rematchOpen && hasPlayer(g.players, playerID)
	g.mu.Unlock()
	if !open {
		return appErr.New(appErr.RematchUnavailable)
	}

	s.notifier.ToRoom(roomID, EventRematchDeclined, RematchDeclinedPayload{
		RoomID: roomID,
		Reason: RematchReasonDeclined,
	})
	s.dropGame(roomID, g)
	return nil
}

func (s *Service) expireRematch(roomID string) {
	g := s.game(roomID)
	if g == nil {
		return
	}
	g.mu.Lock()
	if !g.rematchOpen {
		g.mu.Unlock()
		return
	}
	g.rematchOpen = false
	g.mu.Unlock()

	s.notifier.ToRoom(roomID, EventRematchDeclined, RematchDeclinedPayload{
		RoomID: roomID,
		Reason: RematchReasonExpired,
	})
	s.dropGame(roomID, g)
}

// dropGame retires a finished game's in-memory state once no rematch can
// revive it. The persisted room stays readable until its TTL.
func (s *Service) dropGame(roomID string, g *game) {
	g.mu.Lock()
	g.rematchOpen = false
	if g.rematchTimer != nil {
		g.rematchTimer.Stop()
	}
	g.mu.Unlock()

	s.mu.Lock()
	delete(s.games, roomID)
	for playerID, rooms := range s.membership {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(s.membership, playerID)
		}
	}
	s.mu.Unlock()
}

// Disconnect broadcasts departure to every room the connection was in. Rooms
// are deliberately left alive: a disconnect may be a refresh, and the store
// TTL reclaims abandoned rooms.
func (s *Service) Disconnect(ctx context.Context, playerID string) {
	s.mu.Lock()
	rooms := s.membership[playerID]
	delete(s.membership, playerID)
	s.mu.Unlock()

	for roomID := range rooms {
		s.notifier.ToRoom(roomID, EventPlayerLeft, PlayerLeftPayload{
			RoomID:   roomID,
			PlayerID: playerID,
		})
		logger.Info(ctx, "player left room",
			zap.String("room_id", roomID), zap.String("player_id", playerID))
	}
}

// Room exposes the persisted room document.
func (s *Service) Room(ctx context.Context, roomID string) (*room.Room, error) {
	return s.store.Get(ctx, roomID)
}

func (s *Service) game(roomID string) *game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[roomID]
}

// joinMembership must be called with s.mu held.
func (s *Service) joinMembership(playerID, roomID string) {
	if s.membership[playerID] == nil {
		s.membership[playerID] = make(map[string]struct{})
	}
	s.membership[playerID][roomID] = struct{}{}
}

func (g *game) isStarted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == room.StateStarted
}

func hasPlayer(players []room.Player, id string) bool {
	for _, p := range players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func playerName(players []room.Player, id string) string {
	for _, p := range players {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

// shortRoomID returns a six-character invite code, short enough to share
// verbally. Collisions over a one hour TTL at duel scale are vanishingly
// rare.
func shortRoomID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:6])
}
