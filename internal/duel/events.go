package duel

import (
	"time"

	"codeduel/internal/challenge"
	"codeduel/internal/judge"
	"codeduel/internal/room"
)

// Event names broadcast to duel participants.
const (
	EventRoomCreated      = "room_created"
	EventRoomJoined       = "room_joined"
	EventRoomUpdate       = "room_update"
	EventGameStart        = "game_start"
	EventSubmissionResult = "submission_result"
	EventGameOver         = "game_over"
	EventPlayerLeft       = "player_left"
	EventRematchRequested = "rematch_requested"
	EventRematchStarting  = "rematch_starting"
	EventRematchDeclined  = "rematch_declined"
	EventRematchError     = "rematch_error"
)

// Notifier delivers events to connected players. The websocket hub
// implements it; tests substitute a recording fake.
type Notifier interface {
	ToRoom(roomID, event string, payload any)
	ToPlayer(playerID, event string, payload any)
}

// RoomCreatedPayload acknowledges room creation to the creator, challenge
// included so the creator can prepare before an opponent arrives. Source
// reports the challenge's provenance.
type RoomCreatedPayload struct {
	RoomID     string               `json:"roomId"`
	Challenge  *challenge.Challenge `json:"challenge"`
	Source     string               `json:"source,omitempty"`
	Difficulty string               `json:"difficulty"`
}

// RoomJoinedPayload acknowledges a join, idempotently for repeat joins. It
// replays the full room state so a reconnecting player can resume a game in
// progress without a second round trip.
type RoomJoinedPayload struct {
	RoomID     string               `json:"roomId"`
	Challenge  *challenge.Challenge `json:"challenge"`
	Players    []room.Player        `json:"players"`
	State      room.State           `json:"state"`
	StartedAt  time.Time            `json:"startedAt"`
	Difficulty string               `json:"difficulty"`
}

// RoomUpdatePayload carries roster changes to everyone in the room.
type RoomUpdatePayload struct {
	RoomID  string        `json:"roomId"`
	Players []room.Player `json:"players"`
	State   room.State    `json:"state"`
}

// GameStartPayload reveals the challenge and starts the clock.
type GameStartPayload struct {
	RoomID    string               `json:"roomId"`
	Challenge *challenge.Challenge `json:"challenge"`
	StartedAt time.Time            `json:"startedAt"`
	Deadline  time.Time            `json:"deadline"`
}

// SubmissionResultPayload reports a failed or partial submission to the
// submitting player only. Winning submissions produce GameOverPayload
// instead.
type SubmissionResultPayload struct {
	RoomID  string        `json:"roomId"`
	Passed  bool          `json:"passed"`
	Verdict judge.Verdict `json:"verdict"`
}

// GameOverPayload announces the outcome. An empty WinnerID is a draw, which
// is how a timed-out game ends. Solutions carries every player's last
// submission so both sides can review each other's code.
type GameOverPayload struct {
	RoomID     string                   `json:"roomId"`
	WinnerID   string                   `json:"winnerId,omitempty"`
	WinnerName string                   `json:"winnerName,omitempty"`
	Reason     string                   `json:"reason"`
	Verdict    *judge.Verdict           `json:"verdict,omitempty"`
	Solutions  map[string]room.Solution `json:"solutions,omitempty"`
}

// Game over reasons.
const (
	ReasonSolved  = "solved"
	ReasonTimeout = "timeout"
)

// PlayerLeftPayload tells remaining players someone disconnected. The room
// itself stays alive until it expires.
type PlayerLeftPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// RematchRequestedPayload tells the opponent a rematch was offered.
type RematchRequestedPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// RematchStartingPayload precedes the fresh GameStartPayload of the rematch.
type RematchStartingPayload struct {
	RoomID string `json:"roomId"`
}

// RematchDeclinedPayload ends a rematch negotiation, whether by explicit
// decline or by the offer window lapsing.
type RematchDeclinedPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// Rematch decline reasons.
const (
	RematchReasonDeclined = "declined"
	RematchReasonExpired  = "expired"
)

// RematchErrorPayload reports a rematch that both players accepted but the
// server could not start.
type RematchErrorPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}
