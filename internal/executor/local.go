package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
)

// killGraceWindow is how long a timed-out child gets between SIGTERM and
// SIGKILL.
const killGraceWindow = 2 * time.Second

// Local spawns the target program as a child process on this host.
type Local struct {
	logger   *slog.Logger
	registry *programs.Registry

	// sem caps concurrent child processes when configured; nil means no
	// limit, matching the historical behavior.
	sem *semaphore.Weighted

	grace time.Duration
}

func NewLocal(logger *slog.Logger, registry *programs.Registry, maxConcurrent int) *Local {
	l := &Local{
		logger:   logger,
		registry: registry,
		grace:    killGraceWindow,
	}
	if maxConcurrent > 0 {
		l.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return l
}

// settler is a single-use promise. Both the timeout timer and the process
// exit handler try to resolve it; only the first wins and the loser is a
// no-op. This guard is what guarantees exactly one terminal Result per
// Request.
type settler struct {
	once sync.Once
	ch   chan Result
}

func newSettler() *settler {
	return &settler{ch: make(chan Result, 1)}
}

// resolve reports whether this call settled the result.
func (s *settler) resolve(r Result) bool {
	won := false
	s.once.Do(func() {
		won = true
		s.ch <- r
	})
	return won
}

func (s *settler) wait() Result {
	return <-s.ch
}

// lockedBuffer accumulates child stdio. The child's copier goroutine writes
// while the timeout path may read, hence the mutex.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (l *Local) Run(ctx context.Context, req Request) Result {
	start := time.Now()

	if req.SourceCode == "" {
		return Result{
			ErrorKind:    ErrCodeMissing,
			ErrorMessage: "Code is required",
		}
	}

	def, ok := l.registry.Get(req.ProgramID)
	if !ok {
		return Result{
			ErrorKind:    ErrSpawnFailed,
			ErrorMessage: fmt.Sprintf("unknown program %q", req.ProgramID),
		}
	}

	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return Result{
				ErrorKind:    ErrSpawnFailed,
				ErrorMessage: fmt.Sprintf("acquire run slot: %v", err),
			}
		}
	}
	// The slot bounds live children, so it is released only once the child
	// is reaped, not when Run returns. On the timeout path that is after
	// the SIGTERM→SIGKILL escalation, which outlives the caller.
	releaseSlot := func() {
		if l.sem != nil {
			l.sem.Release(1)
		}
	}

	scriptPath, err := WriteSource(req.OutputDir, def, req.SourceCode)
	if err != nil {
		releaseSlot()
		return Result{
			ErrorKind:    ErrSpawnFailed,
			ErrorMessage: err.Error(),
		}
	}

	if req.StartedAt.IsZero() {
		req.StartedAt = start
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = def.Timeout
	}
	expected := ExpectedOutputPath(req.OutputDir, def, req.StartedAt)

	cmd := exec.Command(def.ExecutableCommand, buildArgs(def, scriptPath, expected)...)
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Env = append(os.Environ(), "OUTPUT_PATH="+expected)
	if def.OutputPathEnvAlias != "" {
		cmd.Env = append(cmd.Env, def.OutputPathEnvAlias+"="+expected)
	}
	// Own process group so a timeout kill takes the whole tree with it,
	// not just the immediate child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout := &lockedBuffer{}
	stderr := &lockedBuffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	l.logger.Info("spawning program",
		"program", def.ID,
		"command", def.ExecutableCommand,
		"script", scriptPath,
		"timeout", timeout)

	if err := cmd.Start(); err != nil {
		l.logger.Error("spawn failed",
			"program", def.ID,
			"command", def.ExecutableCommand,
			"err", err)
		releaseSlot()
		return Result{
			ErrorKind:    ErrSpawnFailed,
			ErrorMessage: err.Error(),
			Duration:     time.Since(start),
		}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	st := newSettler()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	go func() {
		defer releaseSlot()

		select {
		case waitErr := <-waitCh:
			st.resolve(l.finish(def, req, expected, waitErr, stdout, stderr, start))

		case <-timer.C:
			// Settle before killing so the caller is not held up by the
			// grace window. A process close racing in after this point
			// loses against the settler and becomes a no-op.
			st.resolve(Result{
				ErrorKind:    ErrExecutionTimeout,
				ErrorMessage: fmt.Sprintf("%s exceeded %s timeout", def.ID, timeout),
				Stdout:       stdout.String(),
				Stderr:       stderr.String(),
				Duration:     time.Since(start),
			})
			l.logger.Warn("execution timed out, killing process",
				"program", def.ID,
				"pid", cmd.Process.Pid,
				"timeout", timeout)
			l.terminate(cmd, waitCh)
		}
	}()

	return st.wait()
}

// terminate asks the process group to exit and escalates to SIGKILL after
// the grace window. Runs after the timeout Result has already been settled,
// so it never delays the caller.
func (l *Local) terminate(cmd *exec.Cmd, waitCh <-chan error) {
	pgid := -cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case <-waitCh:
	case <-time.After(l.grace):
		_ = syscall.Kill(pgid, syscall.SIGKILL)
		<-waitCh
	}
}

// finish classifies a closed process. Exit code is recorded but never
// decides the outcome; artifact presence does.
func (l *Local) finish(def *programs.Definition, req Request, expected string, waitErr error, stdout, stderr *lockedBuffer, start time.Time) Result {
	exitCode := 0
	if waitErr != nil {
		if ee, ok := waitErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			exitCode = -1
		}
	}

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: &exitCode,
		Duration: time.Since(start),
	}

	artifact, err := Discover(expected, req.OutputDir, def.OutputExtensions, req.StartedAt)
	if err != nil {
		l.logger.Error("no artifact produced",
			"program", def.ID,
			"exit_code", exitCode,
			"expected", expected)
		res.ErrorKind = ErrNoArtifactProduced
		res.ErrorMessage = fmt.Sprintf("%s finished (exit %d) but produced no output artifact", def.ID, exitCode)
		return res
	}

	l.logger.Info("execution completed",
		"program", def.ID,
		"exit_code", exitCode,
		"artifact", artifact,
		"duration", res.Duration.Milliseconds())

	res.Success = true
	res.OutputFilePath = artifact
	res.OutputURL = "/outputs/" + filepath.Base(artifact)
	return res
}
