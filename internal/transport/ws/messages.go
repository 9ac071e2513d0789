package ws

import "encoding/json"

// Inbound message types.
const (
	TypeCreateRoom         = "create_room"
	TypeJoinRoom           = "join_room"
	TypeSubmitSolution     = "submit_solution"
	TypeExecuteCode        = "execute_code"
	TypePracticeChallenges = "practice_challenges"
	TypeSubmitPractice     = "submit_practice"
	TypeRequestRematch     = "request_rematch"
	TypeDeclineRematch     = "decline_rematch"
)

// Outbound transport-level message types. Game events reuse the duel
// package's event names, and practice listings reply with the request's own
// type.
const (
	TypeError           = "error"
	TypeExecutionResult = "execution_result"
	TypePracticeResult  = "practice_result"
)

// Envelope is the wire frame in both directions. Seq, when the client sets
// it, is echoed on the direct reply so requests can be correlated.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outbound is an Envelope whose payload is still a Go value.
type outbound struct {
	Type    string `json:"type"`
	Seq     int64  `json:"seq,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// CreateRoomRequest opens a new duel room.
type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
	Difficulty string `json:"difficulty"`
}

// JoinRoomRequest joins an existing room by invite code.
type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// SubmitSolutionRequest submits a duel solution.
type SubmitSolutionRequest struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ExecuteCodeRequest runs code freely with custom stdin.
type ExecuteCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Stdin    string `json:"stdin"`
}

// PracticeChallengesRequest lists practice challenges.
type PracticeChallengesRequest struct {
	Difficulty string `json:"difficulty"`
	Limit      int    `json:"limit"`
}

// SubmitPracticeRequest submits a practice solution.
type SubmitPracticeRequest struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

// RematchRequest covers both request_rematch and decline_rematch. Difficulty
// asks for a different difficulty next round; empty keeps the current one.
type RematchRequest struct {
	RoomID     string `json:"roomId"`
	Difficulty string `json:"difficulty,omitempty"`
}

// ErrorPayload reports a failed request back to its sender.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
