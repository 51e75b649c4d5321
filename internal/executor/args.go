package executor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/internal/programs"
)

// buildArgs turns a Definition plus the written script into the final argv
// tail. Most tools just take the script path; the rest carry quirks that
// have to be preserved exactly or the tool silently renders nothing.
func buildArgs(def *programs.Definition, scriptPath, expectedOutput string) []string {
	args := append([]string{}, def.BaseArguments...)

	switch def.ID {
	case "matlab":
		// MATLAB batch mode exits non-zero on any uncaught error and
		// sometimes even on success. Wrapping in try/catch keeps the
		// error report on stdout and forces a clean exit either way.
		name := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
		batch := fmt.Sprintf("try, run('%s'), catch e, disp(getReport(e)), end, exit", name)
		args = append(args, "-batch", batch)

	case "blender":
		// Render flags must come after --python or Blender ignores them.
		out := strings.TrimSuffix(expectedOutput, filepath.Ext(expectedOutput))
		args = append(args,
			"--python", scriptPath,
			"--render-output", out,
			"--render-format", "FFMPEG",
			"--render-anim",
		)

	case "octave":
		name := filepath.Base(scriptPath)
		args = append(args, "--eval", fmt.Sprintf("run('%s')", name))

	case "graphviz":
		args = append(args, "-Tpng", scriptPath, "-o", expectedOutput)

	case "processing":
		args = append(args,
			"--sketch="+filepath.Dir(scriptPath),
			"--run",
		)

	default:
		args = append(args, scriptPath)
	}

	return args
}
