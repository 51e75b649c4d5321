package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/executor"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/mcpserver"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/env"
)

// One process per program. MCP_PROGRAM picks which of the nine tools this
// instance serves; everything else mirrors the local executor.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	slogHandler := tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug})
	logger := slog.New(slogHandler)
	slog.SetDefault(logger)

	registry := programs.DefaultRegistry()

	programID := env.GetString("MCP_PROGRAM", "")
	def, ok := registry.Get(programID)
	if !ok {
		logger.Error("MCP_PROGRAM is missing or unknown", "program", programID)
		os.Exit(1)
	}

	port := env.GetInt("PORT", 9100)
	outputDir := env.GetString("OUTPUT_DIR", "outputs")

	local := executor.NewLocal(logger, registry, env.GetInt("MAX_CONCURRENT_RUNS", 0))
	srv := mcpserver.New(logger, def, local, outputDir, port)

	httpSrv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     srv.Routes(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: time.Minute,
	}

	logger.Info("starting mcp service",
		"service", def.ID+"-mcp",
		"port", port)

	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Error("mcp service exited", "err", err)
		os.Exit(1)
	}
}
