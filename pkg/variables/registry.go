package variables

import "fmt"

// Registry is an immutable, ordered lookup table of definitions.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry builds a registry. Codes must be unique.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if def.Code == "" {
			return nil, fmt.Errorf("definition %d: code cannot be empty", len(r.defs))
		}
		if _, exists := r.index[def.Code]; exists {
			return nil, fmt.Errorf("duplicate variable code: %q", def.Code)
		}
		r.index[def.Code] = len(r.defs)
		r.defs = append(r.defs, def)
	}

	return r, nil
}

// Lookup returns the definition for code.
func (r *Registry) Lookup(code string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	i, ok := r.index[code]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// All returns the definitions in declaration order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}
