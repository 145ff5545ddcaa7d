package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"mercator-hq/rating/pkg/numeric"
	"mercator-hq/rating/pkg/variables"
	"mercator-hq/rating/pkg/variables/document"
	"mercator-hq/rating/pkg/variables/magic"
)

var (
	// ErrUnknownVariable is returned when a code has no definition.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrCyclicDependency is returned when a code depends on itself.
	ErrCyclicDependency = errors.New("cyclic variable dependency")

	// ErrMalformedValue is returned when a scalar document value cannot be
	// converted to the declared type.
	ErrMalformedValue = errors.New("malformed variable value")
)

// Recorder receives resolution outcomes. The metrics collector implements it.
type Recorder interface {
	RecordResolution(source, outcome string)
}

// Resolution outcomes reported to the Recorder.
const (
	OutcomeResolved = "resolved"
	OutcomeUnknown  = "unknown"
	OutcomeError    = "error"
)

// Context resolves variable codes against one document.
type Context struct {
	doc     document.Document
	defs    *variables.Registry
	magic   *magic.Catalogue
	logger  *slog.Logger
	metrics Recorder

	memo     map[string]memoEntry
	inFlight map[string]struct{}
}

type memoEntry struct {
	value any
	err   error
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMagic replaces the magic catalogue. The default is magic.Default().
func WithMagic(catalogue *magic.Catalogue) Option {
	return func(c *Context) {
		if catalogue != nil {
			c.magic = catalogue
		}
	}
}

// WithValues pre-seeds the memo with externally supplied values.
func WithValues(values map[string]any) Option {
	return func(c *Context) {
		for code, v := range values {
			c.memo[code] = memoEntry{value: v}
		}
	}
}

// WithMetrics sets a resolution recorder.
func WithMetrics(r Recorder) Option {
	return func(c *Context) {
		c.metrics = r
	}
}

// New creates a Context over doc. doc may be nil, in which case every
// path-backed variable resolves to nil.
func New(doc document.Document, defs *variables.Registry, opts ...Option) *Context {
	c := &Context{
		doc:      doc,
		defs:     defs,
		magic:    magic.Default(),
		logger:   slog.Default(),
		memo:     make(map[string]memoEntry),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get resolves code. Unknown codes yield nil without error.
func (c *Context) Get(code string) (any, error) {
	v, err := c.resolve(code)
	if errors.Is(err, ErrUnknownVariable) {
		c.logger.Warn("Unknown variable", "code", code)
		return nil, nil
	}
	return v, err
}

// GetString resolves code and renders it as text. Absent values are "".
func (c *Context) GetString(code string) (string, error) {
	v, err := c.Get(code)
	if err != nil {
		return "", err
	}
	return stringOf(v), nil
}

// GetDecimal resolves code as a number. It never fails: absent, malformed
// and non-numeric values are zero.
func (c *Context) GetDecimal(code string) decimal.Decimal {
	v, err := c.Get(code)
	if err != nil {
		c.logger.Debug("Variable resolved to zero", "code", code, "error", err)
		return decimal.Zero
	}
	d, ok := numeric.FromValue(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// GetDefinition returns the definition for code.
func (c *Context) GetDefinition(code string) (variables.Definition, bool) {
	return c.defs.Lookup(code)
}

// Seed memoizes value for code, replacing anything resolved before.
func (c *Context) Seed(code string, value any) {
	c.memo[code] = memoEntry{value: value}
}

var placeholder = regexp.MustCompile(`\$\{([^{}]+)\}`)

// Expand replaces ${code} placeholders in template with resolved values.
// Placeholders that fail to resolve are replaced with "".
func (c *Context) Expand(template string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		code := placeholder.FindStringSubmatch(m)[1]
		s, err := c.GetString(code)
		if err != nil {
			c.logger.Warn("Placeholder not resolved", "code", code, "error", err)
			return ""
		}
		return s
	})
}

func (c *Context) resolve(code string) (any, error) {
	if e, ok := c.memo[code]; ok {
		return e.value, e.err
	}

	def, ok := c.defs.Lookup(code)
	if !ok {
		c.record("none", OutcomeUnknown)
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, code)
	}

	if _, busy := c.inFlight[code]; busy {
		return nil, fmt.Errorf("%w: %q", ErrCyclicDependency, code)
	}
	c.inFlight[code] = struct{}{}
	value, err := c.compute(def)
	delete(c.inFlight, code)

	c.memo[code] = memoEntry{value: value, err: err}
	if err != nil {
		c.record(string(def.Source), OutcomeError)
	} else {
		c.record(string(def.Source), OutcomeResolved)
	}
	return value, err
}

func (c *Context) compute(def variables.Definition) (any, error) {
	switch def.Source {
	case variables.SourceMagic:
		fn, ok := c.magic.Lookup(def.Code)
		if !ok {
			c.logger.Warn("Unknown magic variable", "code", def.Code)
			return nil, nil
		}
		return fn(c)

	case variables.SourceIn, variables.SourceConst, variables.SourceCoefficient,
		variables.SourceVar, variables.SourceCalc:
		if !def.HasPath() || c.doc == nil {
			return nil, nil
		}
		return convert(def, c.doc.Query(def.Path))

	default:
		return nil, fmt.Errorf("variable %q: unsupported source kind %q", def.Code, def.Source)
	}
}

func (c *Context) record(source, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordResolution(source, outcome)
	}
}

// stringOf renders a resolved value as text.
func stringOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return numeric.Format(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
