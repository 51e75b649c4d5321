package programs

import (
	"strings"
	"time"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/env"
)

// Definition describes one external rendering tool. Definitions are built
// once at startup and never mutated afterwards.
type Definition struct {
	ID          string
	DisplayName string

	// FileExtension is the extension of the source file written to disk
	// before spawning, e.g. ".py" or ".m".
	FileExtension string

	ExecutableCommand string
	BaseArguments     []string

	// DetectionKeywords feed Select; matched case-insensitively as
	// substrings of the conversation text.
	DetectionKeywords []string

	// ExpectedOutputExt is the extension of the artifact the tool is asked
	// to produce (via OUTPUT_PATH), OutputExtensions the full set discovery
	// accepts when the tool writes somewhere else.
	ExpectedOutputExt string
	OutputExtensions  []string

	Timeout time.Duration

	// OutputPathEnvAlias, when set, is exported alongside OUTPUT_PATH with
	// the same value. Some generated scripts look for a tool-specific name.
	OutputPathEnvAlias string
}

const DefaultProgramID = "python"

var videoExtensions = []string{".mp4", ".avi", ".mov", ".gif"}

// DefaultRegistry builds the registry of the nine supported programs.
// Executable command and timeout are overridable per program through
// <ID>_COMMAND and <ID>_TIMEOUT (uppercased ID).
func DefaultRegistry() *Registry {
	defs := []Definition{
		{
			ID:                "python",
			DisplayName:       "Python (Manim / Matplotlib)",
			FileExtension:     ".py",
			ExecutableCommand: "python3",
			DetectionKeywords: []string{"python", "manim", "matplotlib", "numpy", "sympy"},
			ExpectedOutputExt: ".mp4",
			OutputExtensions:  videoExtensions,
			Timeout:           5 * time.Minute,
		},
		{
			ID:                "matlab",
			DisplayName:       "MATLAB",
			FileExtension:     ".m",
			ExecutableCommand: "matlab",
			BaseArguments:     []string{"-nodisplay", "-nosplash"},
			DetectionKeywords: []string{"matlab", "simulink"},
			ExpectedOutputExt: ".mp4",
			OutputExtensions:  videoExtensions,
			Timeout:           10 * time.Minute,
		},
		{
			ID:                 "blender",
			DisplayName:        "Blender",
			FileExtension:      ".py",
			ExecutableCommand:  "blender",
			BaseArguments:      []string{"--background"},
			DetectionKeywords:  []string{"blender", "3d model", "3d scene", "mesh"},
			ExpectedOutputExt:  ".mp4",
			OutputExtensions:   videoExtensions,
			Timeout:            15 * time.Minute,
			OutputPathEnvAlias: "BLENDER_OUTPUT_PATH",
		},
		{
			ID:                "r",
			DisplayName:       "R",
			FileExtension:     ".R",
			ExecutableCommand: "Rscript",
			DetectionKeywords: []string{"rscript", "ggplot", "tidyverse", "r language"},
			ExpectedOutputExt: ".mp4",
			OutputExtensions:  videoExtensions,
			Timeout:           5 * time.Minute,
		},
		{
			ID:                "julia",
			DisplayName:       "Julia",
			FileExtension:     ".jl",
			ExecutableCommand: "julia",
			DetectionKeywords: []string{"julia", "plots.jl", "makie"},
			ExpectedOutputExt: ".mp4",
			OutputExtensions:  videoExtensions,
			Timeout:           5 * time.Minute,
		},
		{
			ID:                "octave",
			DisplayName:       "GNU Octave",
			FileExtension:     ".m",
			ExecutableCommand: "octave",
			BaseArguments:     []string{"--no-gui", "--quiet"},
			DetectionKeywords: []string{"octave"},
			ExpectedOutputExt: ".mp4",
			OutputExtensions:  videoExtensions,
			Timeout:           5 * time.Minute,
		},
		{
			ID:                "gnuplot",
			DisplayName:       "Gnuplot",
			FileExtension:     ".gp",
			ExecutableCommand: "gnuplot",
			DetectionKeywords: []string{"gnuplot"},
			ExpectedOutputExt: ".gif",
			OutputExtensions:  append([]string{".png"}, videoExtensions...),
			Timeout:           5 * time.Minute,
		},
		{
			ID:                "graphviz",
			DisplayName:       "Graphviz",
			FileExtension:     ".dot",
			ExecutableCommand: "dot",
			DetectionKeywords: []string{"graphviz", "digraph", "flowchart", "dot graph"},
			ExpectedOutputExt: ".png",
			OutputExtensions:  []string{".png"},
			Timeout:           5 * time.Minute,
		},
		{
			ID:                "processing",
			DisplayName:       "Processing",
			FileExtension:     ".pde",
			ExecutableCommand: "processing-java",
			DetectionKeywords: []string{"processing", "p5", "sketch"},
			ExpectedOutputExt: ".mp4",
			OutputExtensions:  videoExtensions,
			Timeout:           5 * time.Minute,
		},
	}

	for i := range defs {
		key := strings.ToUpper(defs[i].ID)
		defs[i].ExecutableCommand = env.GetString(key+"_COMMAND", defs[i].ExecutableCommand)
		defs[i].Timeout = env.GetDuration(key+"_TIMEOUT", defs[i].Timeout)
	}

	return NewRegistry(defs)
}
