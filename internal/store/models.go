package store

import "time"

// Run is one recorded dispatch outcome. History is written by the caller
// side of the orchestrator; the execution path itself never reads it back.
type Run struct {
	ID           int64     `json:"id"`
	ProgramID    string    `json:"program_id"`
	Backend      string    `json:"backend"`
	Success      bool      `json:"success"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
