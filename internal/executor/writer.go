package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
)

// WriteSource persists generated source text under dir with a name unique
// enough for concurrent runs sharing one output directory.
//
// Processing is the odd one out: processing-java insists on a sketch
// directory whose name matches the .pde inside it, so the source goes to
// <dir>/<name>/<name>.pde and the sketch directory path is what the
// argument adapter needs.
func WriteSource(dir string, def *programs.Definition, code string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("script_%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])

	if def.ID == "processing" {
		sketchDir := filepath.Join(dir, name)
		if err := os.MkdirAll(sketchDir, 0o755); err != nil {
			return "", fmt.Errorf("create sketch dir: %w", err)
		}
		path := filepath.Join(sketchDir, name+def.FileExtension)
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			return "", fmt.Errorf("write source: %w", err)
		}
		return path, nil
	}

	path := filepath.Join(dir, name+def.FileExtension)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write source: %w", err)
	}
	return path, nil
}

// ExpectedOutputPath computes where a program is asked (via OUTPUT_PATH) to
// put its artifact for a request started at ts.
func ExpectedOutputPath(dir string, def *programs.Definition, ts time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("simulation_%d%s", ts.UnixMilli(), def.ExpectedOutputExt))
}
