package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Sandbox & Execution errors
// 12000-12999: Challenge source errors
// 13000-13999: Duel & Room errors
// 14000-14999: Session & Practice errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10004
	ServiceUnavailable  ErrorCode = 10005
	Timeout             ErrorCode = 10006

	// Store errors (10100-10199)
	StoreError     ErrorCode = 10100
	RecordNotFound ErrorCode = 10101
	StoreConflict  ErrorCode = 10102

	// ========== Sandbox & Execution Errors (11000-11999) ==========

	LanguageNotSupported ErrorCode = 11000
	EmptySubmission      ErrorCode = 11001
	CodeTooLarge         ErrorCode = 11002
	SandboxUnavailable   ErrorCode = 11100
	ExecutionFailed      ErrorCode = 11101

	// ========== Challenge Source Errors (12000-12999) ==========

	ChallengeSourceUnavailable ErrorCode = 12000
	ChallengeMalformed         ErrorCode = 12001
	ChallengeNotFound          ErrorCode = 12002

	// ========== Duel & Room Errors (13000-13999) ==========

	RoomNotFound       ErrorCode = 13000
	RoomFull           ErrorCode = 13001
	RoomCreateFailed   ErrorCode = 13002
	GameNotStarted     ErrorCode = 13100
	GameAlreadyOver    ErrorCode = 13101
	RematchUnavailable ErrorCode = 13200
	RematchFailed      ErrorCode = 13201

	// ========== Session & Practice Errors (14000-14999) ==========

	SessionNotFound       ErrorCode = 14000
	PracticeSetExhausted  ErrorCode = 14001
	PracticeSubmitInvalid ErrorCode = 14002
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Store
	StoreError:     "Store operation failed",
	RecordNotFound: "Record not found",
	StoreConflict:  "Concurrent update conflict",

	// Sandbox & Execution
	LanguageNotSupported: "Language is not supported",
	EmptySubmission:      "No code submitted",
	CodeTooLarge:         "Submitted code is too large",
	SandboxUnavailable:   "Sandbox backend is unavailable",
	ExecutionFailed:      "Code execution failed",

	// Challenge source
	ChallengeSourceUnavailable: "Challenge source is unavailable",
	ChallengeMalformed:         "Challenge document is malformed",
	ChallengeNotFound:          "Challenge not found",

	// Duel & Room
	RoomNotFound:       "Game not found",
	RoomFull:           "Room already has two players",
	RoomCreateFailed:   "Failed to create room",
	GameNotStarted:     "Game not found or not started",
	GameAlreadyOver:    "Game is already over",
	RematchUnavailable: "No rematch is pending for this room",
	RematchFailed:      "Failed to start rematch. Please try again.",

	// Session & Practice
	SessionNotFound:       "Session not found",
	PracticeSetExhausted:  "No challenges available",
	PracticeSubmitInvalid: "Practice submission is invalid",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == RecordNotFound, c == RoomNotFound,
		c == ChallengeNotFound, c == SessionNotFound:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable, c == SandboxUnavailable,
		c == ChallengeSourceUnavailable:
		return 503
	case c == InvalidParams, c == EmptySubmission, c == CodeTooLarge,
		c == LanguageNotSupported, c == PracticeSubmitInvalid:
		return 400
	case c == RoomFull, c == StoreConflict:
		return 409
	case c == GameNotStarted, c == GameAlreadyOver, c == RematchUnavailable:
		return 409
	default:
		return 500
	}
}
