// Package document gives the engine read access to a policy/quote JSON
// document through path queries, and write access for enrichment.
//
// Paths use gjson syntax (for example "policy.insured.birthDate" or
// "drivers.#.age" to project a field out of every array element). A leading
// "$." is accepted so definitions written in JSONPath style keep working for
// simple dotted paths.
package document

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidJSON is returned when a document is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON document")

// Document is a read-only JSON document queryable by path.
type Document interface {
	// Query returns the value at path. A missing path yields a result whose
	// Exists method reports false.
	Query(path string) gjson.Result
}

// JSONDocument is a Document over raw JSON bytes, validated once at parse time.
type JSONDocument struct {
	raw []byte
}

// Parse validates data and wraps it as a Document.
func Parse(data []byte) (*JSONDocument, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return &JSONDocument{raw: data}, nil
}

// Query implements Document.
func (d *JSONDocument) Query(path string) gjson.Result {
	return gjson.GetBytes(d.raw, NormalizePath(path))
}

// Bytes returns the underlying JSON.
func (d *JSONDocument) Bytes() []byte {
	return d.raw
}

// NormalizePath strips a JSONPath root prefix.
func NormalizePath(path string) string {
	switch {
	case path == "$":
		return "@this"
	case strings.HasPrefix(path, "$."):
		return path[2:]
	default:
		return path
	}
}

// SetString writes a string value at path, creating intermediate objects.
func SetString(doc []byte, path, value string) ([]byte, error) {
	return sjson.SetBytes(doc, NormalizePath(path), value)
}

// SetNumber writes a number literal at path. The literal is written verbatim
// so decimal precision is preserved.
func SetNumber(doc []byte, path, literal string) ([]byte, error) {
	return sjson.SetRawBytes(doc, NormalizePath(path), []byte(literal))
}
