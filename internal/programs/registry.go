package programs

import "strings"

// Registry holds the program definitions in declaration order. The order
// matters: Select breaks keyword-score ties by it.
type Registry struct {
	defs []Definition
	byID map[string]*Definition
}

func NewRegistry(defs []Definition) *Registry {
	r := &Registry{
		defs: defs,
		byID: make(map[string]*Definition, len(defs)),
	}
	for i := range r.defs {
		r.byID[r.defs[i].ID] = &r.defs[i]
	}
	return r
}

func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.byID[NormalizeProgramID(id)]
	return d, ok
}

// All returns the definitions in declaration order. Callers must not
// mutate the returned slice.
func (r *Registry) All() []Definition {
	return r.defs
}

// Select picks the program for a conversation. An explicit override wins
// when it names a registered program. Otherwise each program is scored by
// how many of its detection keywords occur (case-insensitively) in the
// conversation text; the strictly highest score wins, ties go to the
// earlier declaration, and a best score of zero falls back to python.
func (r *Registry) Select(conversation, override string) string {
	if override != "" {
		if d, ok := r.Get(override); ok {
			return d.ID
		}
	}

	text := strings.ToLower(conversation)

	best := ""
	bestScore := 0
	for _, d := range r.defs {
		score := 0
		for _, kw := range d.DetectionKeywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best = d.ID
			bestScore = score
		}
	}

	if bestScore == 0 {
		return DefaultProgramID
	}
	return best
}
