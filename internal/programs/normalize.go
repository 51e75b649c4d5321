package programs

import "strings"

// NormalizeProgramID returns the canonical registry id for a user-supplied
// program name, tolerating the common aliases and misspellings that show up
// in conversation overrides.
func NormalizeProgramID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))

	aliasMap := map[string]string{
		"python":  "python",
		"py":      "python",
		"python3": "python",
		"manim":   "python",

		"matlab":   "matlab",
		"mat lab":  "matlab",
		"simulink": "matlab",

		"blender":   "blender",
		"blendr":    "blender",
		"blender3d": "blender",

		"r":       "r",
		"rscript": "r",
		"rlang":   "r",

		"julia": "julia",
		"jl":    "julia",

		"octave":     "octave",
		"gnu octave": "octave",

		"gnuplot":  "gnuplot",
		"gnu plot": "gnuplot",

		"graphviz": "graphviz",
		"dot":      "graphviz",
		"gv":       "graphviz",

		"processing":      "processing",
		"processing-java": "processing",
		"p5":              "processing",
	}

	if normalized, ok := aliasMap[id]; ok {
		return normalized
	}

	return id
}
