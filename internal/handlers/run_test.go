package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/dispatch"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/events"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/store"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/response"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRunner struct {
	lastReq executor.Request
	res     executor.Result
}

func (f *fakeRunner) Run(ctx context.Context, req executor.Request) executor.Result {
	f.lastReq = req
	return f.res
}

type fakeStore struct {
	mu      sync.Mutex
	blockCh chan struct{} // closed by the test to let InsertRun finish
	runs    []store.Run
}

func (f *fakeStore) InsertRun(ctx context.Context, r store.Run) error {
	if f.blockCh != nil {
		<-f.blockCh
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, r)
	return nil
}

func (f *fakeStore) ListRecentRuns(ctx context.Context, limit int) ([]store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Run(nil), f.runs...), nil
}

func (f *fakeStore) recorded() []store.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Run(nil), f.runs...)
}

type fakePublisher struct {
	mu  sync.Mutex
	evs []events.RunEvent
}

func (f *fakePublisher) Publish(ev events.RunEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evs = append(f.evs, ev)
}

func (f *fakePublisher) published() []events.RunEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.RunEvent(nil), f.evs...)
}

type fakeGenerator struct {
	code string
	err  error
}

func (f *fakeGenerator) Generate(ctx context.Context, conversation, programID string) (string, error) {
	return f.code, f.err
}

func newRepo(runner executor.Runner, opts Options) *HandlerRepo {
	registry := programs.DefaultRegistry()
	d := dispatch.New(testLogger(), runner, nil, false)
	return NewHandlerRepo(testLogger(), registry, d, "outputs", opts)
}

func doRun(t *testing.T, hr *HandlerRepo, payload string) (*httptest.ResponseRecorder, response.JsonResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/run", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	hr.RunHandler(rec, req)

	var body response.JsonResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec, body
}

func TestRunHandlerWithInlineCode(t *testing.T) {
	runner := &fakeRunner{res: executor.Result{
		Success:        true,
		OutputFilePath: "/srv/outputs/simulation_1.mp4",
		OutputURL:      "/outputs/simulation_1.mp4",
	}}
	hr := newRepo(runner, Options{})

	rec, body := doRun(t, hr, `{"code":"print(1)","conversation":"let's use matlab and simulink"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, body.Error)

	data := body.Data.(map[string]any)
	assert.Equal(t, "matlab", data["program"])
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "/outputs/simulation_1.mp4", data["output_url"])

	assert.Equal(t, "matlab", runner.lastReq.ProgramID)
	assert.Equal(t, "print(1)", runner.lastReq.SourceCode)
}

func TestRunHandlerGeneratesCodeWhenMissing(t *testing.T) {
	runner := &fakeRunner{res: executor.Result{Success: true}}
	hr := newRepo(runner, Options{Generator: &fakeGenerator{code: "generated code"}})

	rec, _ := doRun(t, hr, `{"conversation":"plot something in octave"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "octave", runner.lastReq.ProgramID)
	assert.Equal(t, "generated code", runner.lastReq.SourceCode)
}

func TestRunHandlerGeneratorFailure(t *testing.T) {
	hr := newRepo(&fakeRunner{}, Options{Generator: &fakeGenerator{err: errors.New("llm down")}})

	rec, body := doRun(t, hr, `{"conversation":"anything"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, body.Error)
}

func TestRunHandlerNoCodeNoGenerator(t *testing.T) {
	hr := newRepo(&fakeRunner{}, Options{})

	rec, body := doRun(t, hr, `{"conversation":"anything"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, body.Error)
	assert.Equal(t, "Code is required", body.Message)
}

func TestRunHandlerReportsFailure(t *testing.T) {
	runner := &fakeRunner{res: executor.Result{
		Success:      false,
		ErrorKind:    executor.ErrNoArtifactProduced,
		ErrorMessage: "python finished (exit 0) but produced no output artifact",
	}}
	hr := newRepo(runner, Options{})

	rec, body := doRun(t, hr, `{"code":"print(1)"}`)

	// failed runs still answer 200 with a structured result
	require.Equal(t, http.StatusOK, rec.Code)
	data := body.Data.(map[string]any)
	assert.Equal(t, false, data["success"])
	assert.Equal(t, string(executor.ErrNoArtifactProduced), data["error_kind"])
}

func TestRunHandlerRecordsServingBackend(t *testing.T) {
	fs := &fakeStore{}
	fp := &fakePublisher{}
	runner := &fakeRunner{res: executor.Result{
		Success:        true,
		OutputFilePath: "/srv/outputs/simulation_1.mp4",
	}}
	hr := newRepo(runner, Options{Queries: fs, Publisher: fp})

	rec, body := doRun(t, hr, `{"code":"print(1)"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data := body.Data.(map[string]any)
	assert.Equal(t, string(executor.BackendLocal), data["backend"])

	// recording is async, so poll for it
	require.Eventually(t, func() bool { return len(fs.recorded()) == 1 }, 2*time.Second, 10*time.Millisecond)
	run := fs.recorded()[0]
	assert.Equal(t, "python", run.ProgramID)
	assert.Equal(t, string(executor.BackendLocal), run.Backend)
	assert.True(t, run.Success)
	assert.Equal(t, "/srv/outputs/simulation_1.mp4", run.ArtifactPath)

	require.Eventually(t, func() bool { return len(fp.published()) == 1 }, 2*time.Second, 10*time.Millisecond)
	ev := fp.published()[0]
	assert.Equal(t, events.RUN_COMPLETED, ev.Type)
	assert.Equal(t, string(executor.BackendLocal), ev.Backend)
}

func TestRunHandlerDoesNotWaitForRecording(t *testing.T) {
	fs := &fakeStore{blockCh: make(chan struct{})}
	runner := &fakeRunner{res: executor.Result{Success: true}}
	hr := newRepo(runner, Options{Queries: fs})

	// the response must come back while InsertRun is still blocked
	rec, _ := doRun(t, hr, `{"code":"print(1)"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, fs.recorded(), "history insert ran on the request path")

	close(fs.blockCh)
	require.Eventually(t, func() bool { return len(fs.recorded()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestListProgramsHandler(t *testing.T) {
	hr := newRepo(&fakeRunner{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	rec := httptest.NewRecorder()
	hr.ListProgramsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body response.JsonResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data.([]any), 9)
}
