package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
)

// clientTimeoutMargin pads the client-side HTTP timeout past the server-side
// execution timeout so the microservice gets to report its own timeout
// instead of the client cutting the connection first.
const clientTimeoutMargin = 30 * time.Second

// ExecuteRequest is the POST /execute body.
type ExecuteRequest struct {
	Code    string         `json:"code"`
	Options map[string]any `json:"options,omitempty"`
}

// ExecuteResponse mirrors the microservice wire contract. Failures still
// arrive as HTTP 200; only Success distinguishes the outcome.
type ExecuteResponse struct {
	Success    bool   `json:"success"`
	OutputFile string `json:"outputFile,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
	URL        string `json:"url,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	Error      string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Port    int    `json:"port"`
}

// Client executes a program on its remote microservice. It satisfies the
// same Runner shape as the local executor, but transport failures surface
// as errors from Execute so the dispatcher can fall back.
type Client struct {
	logger   *slog.Logger
	endpoint string
	http     *http.Client
}

func NewClient(logger *slog.Logger, endpoint string, execTimeout time.Duration) *Client {
	return &Client{
		logger:   logger,
		endpoint: endpoint,
		http: &http.Client{
			Timeout: execTimeout + clientTimeoutMargin,
		},
	}
}

// Execute POSTs the request and decodes the wire response. A returned error
// means the remote side was unreachable or broke the contract; its Result
// carries ErrRemoteUnavailable so the failure stays classified even though
// the dispatcher recovers it locally. A decoded response with Success=false
// is a valid outcome, not an error.
func (c *Client) Execute(ctx context.Context, req executor.Request) (executor.Result, error) {
	body, err := json.Marshal(ExecuteRequest{
		Code:    req.SourceCode,
		Options: req.Options,
	})
	if err != nil {
		return unavailable(fmt.Errorf("encode execute request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/execute", bytes.NewReader(body))
	if err != nil {
		return unavailable(fmt.Errorf("build execute request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return unavailable(fmt.Errorf("remote execute: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return unavailable(fmt.Errorf("remote execute: unexpected status %d", resp.StatusCode))
	}

	var wire ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return unavailable(fmt.Errorf("decode execute response: %w", err))
	}

	res := executor.Result{
		Success:        wire.Success,
		OutputFilePath: wire.OutputPath,
		OutputURL:      wire.URL,
		Stdout:         wire.Stdout,
		Stderr:         wire.Stderr,
	}
	if !wire.Success {
		res.ErrorKind = executor.ErrRemoteError
		res.ErrorMessage = wire.Error
	}
	return res, nil
}

func unavailable(err error) (executor.Result, error) {
	return executor.Result{
		ErrorKind:    executor.ErrRemoteUnavailable,
		ErrorMessage: err.Error(),
	}, err
}

// Health checks GET /health. The endpoint answers ok whenever the service
// process is up, regardless of whether the underlying tool is installed.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return HealthResponse{}, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("remote health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HealthResponse{}, fmt.Errorf("remote health: unexpected status %d", resp.StatusCode)
	}

	var h HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return HealthResponse{}, fmt.Errorf("decode health response: %w", err)
	}
	return h, nil
}
