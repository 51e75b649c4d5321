package pipeline

import "context"

// CodeGenerator turns a conversation into source text for a program. The
// orchestrator treats the output as an opaque string: no validation, no
// sandboxing. The LLM-backed implementation lives outside this module.
type CodeGenerator interface {
	Generate(ctx context.Context, conversation, programID string) (string, error)
}

// VideoComposer consumes the artifact a run produced. How the artifact is
// narrated, stitched, or published is not this subsystem's concern.
type VideoComposer interface {
	Compose(ctx context.Context, artifactPath string) error
}
