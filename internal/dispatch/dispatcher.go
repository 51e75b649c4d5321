package dispatch

import (
	"context"
	"log/slog"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
)

// RemoteExecutor is what the dispatcher needs from a remote client. A
// returned error is a remote-side failure (network, non-2xx, broken body)
// and triggers local fallback; a Result with Success=false is a valid
// outcome returned as-is.
type RemoteExecutor interface {
	Execute(ctx context.Context, req executor.Request) (executor.Result, error)
}

// Dispatcher routes each request to the remote microservice or the local
// executor. Nothing escapes it: every request comes back as exactly one
// structured Result.
type Dispatcher struct {
	logger    *slog.Logger
	local     executor.Runner
	remotes   map[string]RemoteExecutor
	useRemote bool
}

func New(logger *slog.Logger, local executor.Runner, remotes map[string]RemoteExecutor, useRemote bool) *Dispatcher {
	if remotes == nil {
		remotes = map[string]RemoteExecutor{}
	}
	return &Dispatcher{
		logger:    logger,
		local:     local,
		remotes:   remotes,
		useRemote: useRemote,
	}
}

// Run executes the request. Remote goes first only when the use-remote flag
// is set and the program has a configured endpoint. Any remote-side failure
// falls back to local exactly once, with the identical request; there is no
// second remote attempt. The Result records which backend actually served
// the request.
func (d *Dispatcher) Run(ctx context.Context, req executor.Request) executor.Result {
	if d.useRemote {
		if rc, ok := d.remotes[req.ProgramID]; ok {
			res, err := rc.Execute(ctx, req)
			if err == nil {
				res.Backend = executor.BackendRemote
				return res
			}
			d.logger.Warn("remote execution failed, falling back to local",
				"program", req.ProgramID,
				"err", err)
		}
	}
	res := d.local.Run(ctx, req)
	res.Backend = executor.BackendLocal
	return res
}
