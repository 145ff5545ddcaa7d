package variables

import (
	"errors"
	"fmt"
	"strings"
)

// Definition describes how to obtain and type one named value.
// Definitions are values and are never modified after construction.
type Definition struct {
	// Code is the unique variable name.
	Code string

	// Path locates the value in the document. Empty means the variable has
	// no document source and stays absent until something writes it.
	Path string

	// Type is the declared data type.
	Type DataType

	// Scope tells whether the variable belongs to the document or a calculator.
	Scope Scope

	// Source is how the value is obtained.
	Source SourceKind

	// Aggregation is parsed from a trailing function marker in the path.
	Aggregation Aggregation

	// Function is the raw marker name, kept for diagnostics even when it did
	// not map to a known aggregation.
	Function string
}

// NewDefinition builds a definition, splitting a trailing ".name()" marker
// off the path.
func NewDefinition(code, path string, typ DataType, scope Scope, source SourceKind) (Definition, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Definition{}, errors.New("variable code cannot be empty")
	}
	if typ != TypeString && typ != TypeNumber {
		return Definition{}, fmt.Errorf("variable %q: unknown data type %q", code, typ)
	}
	if scope == "" {
		scope = ScopeDomain
	}
	if source == "" {
		source = SourceIn
	}
	if !source.Valid() {
		return Definition{}, fmt.Errorf("variable %q: unknown source kind %q", code, source)
	}

	def := Definition{
		Code:   code,
		Type:   typ,
		Scope:  scope,
		Source: source,
	}
	def.Path, def.Function = splitFunctionMarker(strings.TrimSpace(path))
	if def.Function != "" {
		def.Aggregation = ParseAggregation(def.Function)
	}

	return def, nil
}

// HasPath reports whether the definition is backed by a document path.
func (d Definition) HasPath() bool {
	return d.Path != ""
}

// splitFunctionMarker returns the path without a trailing "name()" segment
// and the segment's name.
func splitFunctionMarker(path string) (string, string) {
	if !strings.HasSuffix(path, "()") {
		return path, ""
	}

	body := strings.TrimSuffix(path, "()")
	dot := strings.LastIndex(body, ".")
	if dot < 0 {
		return "", body
	}
	return body[:dot], body[dot+1:]
}
