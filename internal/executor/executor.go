package executor

import (
	"context"
	"time"
)

// ErrorKind classifies a failed run. There is deliberately no kind for a
// non-zero exit: several tools (MATLAB batch mode among them) exit non-zero
// on logically successful runs, so the exit code stays diagnostic metadata
// on Result and never becomes a failure by itself.
type ErrorKind string

const (
	ErrCodeMissing        ErrorKind = "code_missing"
	ErrSpawnFailed        ErrorKind = "spawn_failed"
	ErrExecutionTimeout   ErrorKind = "execution_timeout"
	ErrNoArtifactProduced ErrorKind = "no_artifact_produced"

	// ErrRemoteUnavailable marks transport-level remote failures; the
	// dispatcher recovers those locally, so it never reaches a caller.
	// ErrRemoteError is a remote-side run that logically failed.
	ErrRemoteUnavailable ErrorKind = "remote_unavailable"
	ErrRemoteError       ErrorKind = "remote_error"
)

// Backend identifies which executor actually served a request.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// Request carries one run attempt. It is created per call, owned by that
// call, and discarded when the call returns.
type Request struct {
	ProgramID  string
	SourceCode string
	OutputDir  string
	StartedAt  time.Time
	Timeout    time.Duration

	// Options are program-specific knobs (steps, frames, width, height,
	// device, ...). The orchestrator passes them through opaquely.
	Options map[string]any
}

// Result is the terminal outcome of a Request. Exactly one Result is
// produced per Request.
type Result struct {
	Success        bool
	Backend        Backend
	OutputFilePath string
	OutputURL      string
	Stdout         string
	Stderr         string
	ErrorKind      ErrorKind
	ErrorMessage   string
	ExitCode       *int
	Duration       time.Duration
}

// Runner is implemented by both the local spawn backend and the remote
// microservice client, so the dispatcher can treat them interchangeably.
type Runner interface {
	Run(ctx context.Context, req Request) Result
}
