package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/events"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/store"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/request"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/response"
)

type RunRequest struct {
	Code         string         `json:"code"`
	Conversation string         `json:"conversation"`
	Program      string         `json:"program"`
	Options      map[string]any `json:"options"`
}

type RunResponse struct {
	Program    string `json:"program"`
	Backend    string `json:"backend"`
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path,omitempty"`
	OutputURL  string `json:"output_url,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// RunHandler selects a program, obtains source code (from the request or
// the configured generator), dispatches the run, and reports the outcome.
func (hr *HandlerRepo) RunHandler(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.JSON(w, http.StatusBadRequest, nil, true, err.Error())
		return
	}

	programID := hr.registry.Select(req.Conversation, req.Program)

	code := req.Code
	if code == "" && hr.generator != nil {
		generated, err := hr.generator.Generate(r.Context(), req.Conversation, programID)
		if err != nil {
			hr.logger.Error("code generation failed",
				"program", programID,
				"err", err)
			response.JSON(w, http.StatusBadGateway, nil, true, "code generation failed")
			return
		}
		code = generated
	}
	if code == "" {
		response.JSON(w, http.StatusBadRequest, nil, true, "Code is required")
		return
	}

	def, _ := hr.registry.Get(programID)

	res := hr.dispatcher.Run(r.Context(), executor.Request{
		ProgramID:  programID,
		SourceCode: code,
		OutputDir:  hr.outputDir,
		StartedAt:  time.Now(),
		Timeout:    def.Timeout,
		Options:    req.Options,
	})

	// History and events are observability, not part of serving the run:
	// they must not delay the response.
	go hr.recordRun(context.WithoutCancel(r.Context()), programID, res)

	response.JSON(w, http.StatusOK, RunResponse{
		Program:    programID,
		Backend:    string(res.Backend),
		Success:    res.Success,
		OutputPath: res.OutputFilePath,
		OutputURL:  res.OutputURL,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		Error:      res.ErrorMessage,
		ErrorKind:  string(res.ErrorKind),
		DurationMs: res.Duration.Milliseconds(),
	}, false, "run finished")
}

// recordRun persists history and publishes the run event when those
// collaborators are configured. Best effort on both; runs off the request
// goroutine, so ctx must outlive the HTTP response.
func (hr *HandlerRepo) recordRun(ctx context.Context, programID string, res executor.Result) {
	if hr.queries != nil {
		err := hr.queries.InsertRun(ctx, store.Run{
			ProgramID:    programID,
			Backend:      string(res.Backend),
			Success:      res.Success,
			ErrorKind:    string(res.ErrorKind),
			ArtifactPath: res.OutputFilePath,
			DurationMs:   res.Duration.Milliseconds(),
		})
		if err != nil {
			hr.logger.Error("failed to record run", "program", programID, "err", err)
		}
	}

	if hr.publisher != nil {
		ev := events.RunEvent{
			Type:         events.RUN_COMPLETED,
			ProgramID:    programID,
			Backend:      string(res.Backend),
			ArtifactPath: res.OutputFilePath,
			FinishedAt:   time.Now(),
		}
		if !res.Success {
			ev.Type = events.RUN_FAILED
			ev.ErrorKind = string(res.ErrorKind)
		}
		hr.publisher.Publish(ev)
	}
}
