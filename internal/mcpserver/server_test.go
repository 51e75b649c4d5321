package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
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

func newTestServer(runner executor.Runner) *Server {
	def := &programs.Definition{
		ID:                "python",
		FileExtension:     ".py",
		ExpectedOutputExt: ".mp4",
		OutputExtensions:  []string{".mp4"},
		Timeout:           5 * time.Minute,
	}
	return New(testLogger(), def, runner, "outputs", 9100)
}

func TestHealthIndependentOfTool(t *testing.T) {
	// runner never invoked by /health, so a broken tool cannot matter
	srv := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "python-mcp", body["service"])
	assert.Equal(t, float64(9100), body["port"])
}

func TestExecuteMissingCode(t *testing.T) {
	for _, payload := range []string{`{}`, `{"code":""}`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewBufferString(payload))
		rec := httptest.NewRecorder()
		newTestServer(&fakeRunner{}).Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %q", payload)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Code is required", body["error"])
	}
}

func TestExecuteSuccess(t *testing.T) {
	runner := &fakeRunner{res: executor.Result{
		Success:        true,
		OutputFilePath: "/srv/outputs/simulation_9.mp4",
		OutputURL:      "/outputs/simulation_9.mp4",
		Stdout:         "done",
	}}
	srv := newTestServer(runner)

	payload := `{"code":"print(1)","options":{"frames":30}}`
	req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "simulation_9.mp4", body["outputFile"])
	assert.Equal(t, "/srv/outputs/simulation_9.mp4", body["outputPath"])
	assert.Equal(t, "/outputs/simulation_9.mp4", body["url"])
	assert.Equal(t, "done", body["stdout"])

	assert.Equal(t, "python", runner.lastReq.ProgramID)
	assert.Equal(t, "print(1)", runner.lastReq.SourceCode)
	assert.Equal(t, map[string]any{"frames": float64(30)}, runner.lastReq.Options)
}

func TestExecuteFailureStillHTTP200(t *testing.T) {
	runner := &fakeRunner{res: executor.Result{
		Success:      false,
		ErrorKind:    executor.ErrExecutionTimeout,
		ErrorMessage: "python exceeded 5m0s timeout",
		Stderr:       "killed",
	}}
	srv := newTestServer(runner)

	req := httptest.NewRequest(http.MethodPost, "/execute", bytes.NewBufferString(`{"code":"while True: pass"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "python exceeded 5m0s timeout", body["error"])
	assert.Equal(t, "killed", body["stderr"])
}
