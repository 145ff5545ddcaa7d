package formula

import "mercator-hq/rating/pkg/variables"

// Entry is one pool variable. A nil Value means absent.
type Entry struct {
	Code  string
	Value *string
	Type  variables.SourceKind
}

// StringValue returns a pointer to s, for building entries.
func StringValue(s string) *string {
	return &s
}

// Pool is the ordered working set of variables of one run. It is not safe
// for concurrent use.
type Pool struct {
	entries []Entry
	index   map[string]int
}

// NewPool creates a pool from entries. A later entry with the same code
// replaces the earlier one in place.
func NewPool(entries ...Entry) *Pool {
	p := &Pool{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		p.put(e)
	}
	return p
}

// Merge seeds a pool from a model's declared variables and the caller's
// inputs. An input with a declared code overrides the value and keeps the
// declared type; other inputs are appended.
func Merge(declared, inputs []Entry) *Pool {
	p := NewPool(declared...)
	for _, in := range inputs {
		if i, ok := p.index[in.Code]; ok {
			p.entries[i].Value = cloneValue(in.Value)
			continue
		}
		if in.Type == "" {
			in.Type = variables.SourceIn
		}
		p.put(in)
	}
	return p
}

func (p *Pool) put(e Entry) {
	e.Value = cloneValue(e.Value)
	if i, ok := p.index[e.Code]; ok {
		p.entries[i] = e
		return
	}
	p.index[e.Code] = len(p.entries)
	p.entries = append(p.entries, e)
}

// Get returns the entry for code.
func (p *Pool) Get(code string) (Entry, bool) {
	i, ok := p.index[code]
	if !ok {
		return Entry{}, false
	}
	e := p.entries[i]
	e.Value = cloneValue(e.Value)
	return e, true
}

// Set writes value under code. Unknown codes are appended as VAR entries.
func (p *Pool) Set(code string, value *string) {
	if i, ok := p.index[code]; ok {
		p.entries[i].Value = cloneValue(value)
		return
	}
	p.put(Entry{Code: code, Value: value, Type: variables.SourceVar})
}

// Lookup returns the value of code; ok is false when the entry is missing or
// absent. It lets a pool serve coefficient lookups.
func (p *Pool) Lookup(code string) (string, bool) {
	i, ok := p.index[code]
	if !ok || p.entries[i].Value == nil {
		return "", false
	}
	return *p.entries[i].Value, true
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the entries in pool order.
func (p *Pool) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	for i, e := range p.entries {
		e.Value = cloneValue(e.Value)
		out[i] = e
	}
	return out
}

// Values returns the pool as a map of code to value.
func (p *Pool) Values() map[string]*string {
	out := make(map[string]*string, len(p.entries))
	for _, e := range p.entries {
		out[e.Code] = cloneValue(e.Value)
	}
	return out
}

func cloneValue(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
