// Package pricing prices one quote document: it resolves the calculator's
// inputs from the document, runs the calculator's formulas and writes the
// results back into a copy of the document.
package pricing
