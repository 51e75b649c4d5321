package handlers

import (
	"context"
	"log/slog"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/dispatch"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/events"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/pipeline"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/store"
)

// RunStore is the slice of the history store the handlers use.
// *store.Queries satisfies it.
type RunStore interface {
	InsertRun(ctx context.Context, r store.Run) error
	ListRecentRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// RunPublisher emits run events; *events.Publisher satisfies it.
type RunPublisher interface {
	Publish(ev events.RunEvent)
}

// HandlerRepo holds all the dependencies required by the handlers: the
// application logger, the program registry, the execution dispatcher, and
// the optional history store, event publisher, and code generator.
type HandlerRepo struct {
	logger     *slog.Logger
	registry   *programs.Registry
	dispatcher *dispatch.Dispatcher
	outputDir  string

	// Optional collaborators; nil when not configured.
	queries   RunStore
	publisher RunPublisher
	generator pipeline.CodeGenerator
}

type Options struct {
	Queries   RunStore
	Publisher RunPublisher
	Generator pipeline.CodeGenerator
}

// NewHandlerRepo creates a new HandlerRepo with the provided dependencies.
func NewHandlerRepo(logger *slog.Logger, registry *programs.Registry, dispatcher *dispatch.Dispatcher, outputDir string, opts Options) *HandlerRepo {
	return &HandlerRepo{
		logger:     logger,
		registry:   registry,
		dispatcher: dispatcher,
		outputDir:  outputDir,
		queries:    opts.Queries,
		publisher:  opts.Publisher,
		generator:  opts.Generator,
	}
}
