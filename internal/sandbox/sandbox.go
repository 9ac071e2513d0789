// Package sandbox executes untrusted code inside isolated, resource-bounded
// containers.
package sandbox

import (
	"context"
	"time"
)

// Status classifies the outcome of one sandbox invocation.
type Status string

const (
	StatusAccepted          Status = "Accepted"
	StatusCompilationError  Status = "Compilation Error"
	StatusRuntimeError      Status = "Runtime Error"
	StatusTimeLimitExceeded Status = "Time Limit Exceeded"
	StatusInternalError     Status = "Internal Error"
)

// Request describes one execution. It is owned by a single invocation and
// never shared.
type Request struct {
	Code     string
	Language string
	Stdin    string
}

// Result is the immutable outcome of one invocation.
type Result struct {
	Status   Status
	Stdout   string
	Stderr   string
	Error    string
	Duration time.Duration

	// MemoryKB is best-effort; nil when the backend cannot report it.
	MemoryKB *int
}

// Executor runs one bounded execution per call. Implementations must never
// leak containers or scratch state, whatever the exit path.
type Executor interface {
	Execute(ctx context.Context, req Request) Result
}
