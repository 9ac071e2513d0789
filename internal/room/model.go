package room

import (
	"time"

	"codeduel/internal/challenge"
)

// State is the lifecycle phase of a room.
type State string

const (
	StateWaiting  State = "waiting"
	StateStarted  State = "started"
	StateFinished State = "finished"
)

// Player identifies one participant by connection identity.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Solution is the latest submission a player made in a room.
type Solution struct {
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Room is the persisted duel document. It expires one hour after its last
// write; an expired room is indistinguishable from one that never existed.
type Room struct {
	ID         string               `json:"id"`
	Challenge  *challenge.Challenge `json:"challenge"`
	Difficulty string               `json:"difficulty"`
	Players    []Player             `json:"players"`
	Solutions  map[string]Solution  `json:"solutions"`
	State      State                `json:"state"`
	WinnerID   string               `json:"winnerId,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
	StartedAt  time.Time            `json:"startedAt,omitempty"`
	FinishedAt time.Time            `json:"finishedAt,omitempty"`
}

// HasPlayer reports whether the given connection is a participant.
func (r *Room) HasPlayer(playerID string) bool {
	for _, p := range r.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}
