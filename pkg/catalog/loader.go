package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/rating/pkg/coefficient"
	"mercator-hq/rating/pkg/formula"
	"mercator-hq/rating/pkg/variables"
)

// Extensions lists the file extensions Load reads.
var Extensions = []string{".yaml", ".yml"}

// Load reads every catalog file below dir. Hidden files and directories are
// skipped. All file errors are collected and returned together; the catalog
// is nil when any file fails.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to access directory", Cause: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{FilePath: dir, Message: "not a directory"}
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && hasValidExtension(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	sort.Strings(paths)

	c := newCatalog()
	var errs []error
	for _, path := range paths {
		if err := c.loadFile(path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range Extensions {
		if ext == valid {
			return true
		}
	}
	return false
}

func (c *Catalog) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	var h header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return &LoadError{FilePath: path, Message: "invalid YAML", Cause: err}
	}

	switch h.Kind {
	case KindDefinitions:
		var f DefinitionsFile
		if err := decodeStrict(data, &f); err != nil {
			return &LoadError{FilePath: path, Message: "invalid definitions file", Cause: err}
		}
		if err := c.addDefinitions(f); err != nil {
			return &LoadError{FilePath: path, Message: "invalid definitions", Cause: err}
		}

	case KindCalculator:
		var f CalculatorFile
		if err := decodeStrict(data, &f); err != nil {
			return &LoadError{FilePath: path, Message: "invalid calculator file", Cause: err}
		}
		if err := c.addCalculator(f); err != nil {
			return &LoadError{FilePath: path, Message: "invalid calculator", Cause: err}
		}

	case KindCoefficients:
		var f CoefficientsFile
		if err := decodeStrict(data, &f); err != nil {
			return &LoadError{FilePath: path, Message: "invalid coefficients file", Cause: err}
		}
		if err := c.addTable(f); err != nil {
			return &LoadError{FilePath: path, Message: "invalid coefficient table", Cause: err}
		}

	case "":
		return &LoadError{FilePath: path, Message: "missing kind"}
	default:
		return &LoadError{FilePath: path, Message: fmt.Sprintf("unknown kind %q", h.Kind)}
	}
	return nil
}

// decodeStrict rejects unknown fields so typos in a model do not pass
// silently.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func (c *Catalog) addDefinitions(f DefinitionsFile) error {
	if f.Product == "" {
		return errors.New("product is required")
	}
	if _, ok := c.Definitions[f.Product]; ok {
		return fmt.Errorf("product %q defined twice", f.Product)
	}

	defs := make([]variables.Definition, 0, len(f.Variables))
	for i, v := range f.Variables {
		def, err := v.definition()
		if err != nil {
			return fmt.Errorf("variables[%d]: %w", i, err)
		}
		defs = append(defs, def)
	}

	reg, err := variables.NewRegistry(defs...)
	if err != nil {
		return err
	}
	c.Definitions[f.Product] = reg
	return nil
}

func (v VariableSpec) definition() (variables.Definition, error) {
	typ, err := variables.ParseDataType(v.Type)
	if err != nil {
		return variables.Definition{}, err
	}
	scope, err := variables.ParseScope(v.Scope)
	if err != nil {
		return variables.Definition{}, err
	}
	source, err := variables.ParseSourceKind(v.Source)
	if err != nil {
		return variables.Definition{}, err
	}
	return variables.NewDefinition(v.Code, v.Path, typ, scope, source)
}

func (c *Catalog) addCalculator(f CalculatorFile) error {
	if f.ID == "" {
		return errors.New("id is required")
	}
	if _, ok := c.Calculators[f.ID]; ok {
		return fmt.Errorf("calculator %q defined twice", f.ID)
	}

	model := &formula.Model{CalculatorID: f.ID, Name: f.Name}

	for i, v := range f.Variables {
		kind, err := variables.ParseSourceKind(v.Type)
		if err != nil {
			return fmt.Errorf("variables[%d]: %w", i, err)
		}
		model.Variables = append(model.Variables, formula.Entry{Code: v.Code, Value: v.Value, Type: kind})
	}

	for _, spec := range f.Formulas {
		fm := formula.Formula{Name: spec.Name}
		for _, l := range spec.Lines {
			line := formula.Line{
				Sequence:      l.Seq,
				Left:          l.Left,
				Operator:      formula.Operator(strings.TrimSpace(l.Op)),
				Right:         l.Right,
				Result:        l.Set,
				PostProcessor: l.Post,
			}
			if l.If != nil {
				line.ConditionLeft = l.If.Left
				line.ConditionOperator = l.If.Op
				line.ConditionRight = l.If.Right
			}
			fm.Lines = append(fm.Lines, line)
		}
		model.Formulas = append(model.Formulas, fm)
	}

	for i, cs := range f.Coefficients {
		def := formula.CoefficientDefinition{Code: cs.Code}
		for j, col := range cs.Columns {
			column, err := col.column()
			if err != nil {
				return fmt.Errorf("coefficients[%d].columns[%d]: %w", i, j, err)
			}
			def.Columns = append(def.Columns, column)
		}
		model.Coefficients = append(model.Coefficients, def)
	}

	if err := model.Validate(); err != nil {
		return err
	}

	c.Calculators[f.ID] = model
	c.products[f.ID] = f.Product
	return nil
}

func (s ColumnSpec) column() (coefficient.Column, error) {
	op, err := coefficient.ParseOperator(s.Op)
	if err != nil {
		return coefficient.Column{}, err
	}
	sortOrder, err := coefficient.ParseSortOrder(s.Sort)
	if err != nil {
		return coefficient.Column{}, err
	}
	kind, err := coefficient.ParseDataKind(s.Kind)
	if err != nil {
		return coefficient.Column{}, err
	}
	return coefficient.Column{
		VarCode:  s.Var,
		Index:    s.Index,
		Operator: op,
		Sort:     sortOrder,
		Kind:     kind,
	}, nil
}

func (c *Catalog) addTable(f CoefficientsFile) error {
	if f.Calculator == "" || f.Code == "" {
		return errors.New("calculator and code are required")
	}

	t := Table{Calculator: f.Calculator, Code: f.Code}
	for i, r := range f.Rows {
		if len(r.When) > coefficient.MaxColumns {
			return fmt.Errorf("rows[%d]: %d columns exceed maximum of %d", i, len(r.When), coefficient.MaxColumns)
		}
		t.Rows = append(t.Rows, coefficient.Row{Columns: r.When, Result: r.Result})
	}
	c.Tables = append(c.Tables, t)
	return nil
}
