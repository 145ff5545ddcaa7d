package catalog

// File kinds.
const (
	KindDefinitions  = "definitions"
	KindCalculator   = "calculator"
	KindCoefficients = "coefficients"
)

type header struct {
	Kind string `yaml:"kind"`
}

// DefinitionsFile declares the variables of one product.
type DefinitionsFile struct {
	Kind      string         `yaml:"kind"`
	Product   string         `yaml:"product"`
	Variables []VariableSpec `yaml:"variables"`
}

// VariableSpec is one variable definition. Path may end with an
// aggregation marker such as ".sum()".
type VariableSpec struct {
	Code   string `yaml:"code"`
	Path   string `yaml:"path"`
	Type   string `yaml:"type"`
	Scope  string `yaml:"scope"`
	Source string `yaml:"source"`
}

// CalculatorFile declares one calculator model.
type CalculatorFile struct {
	Kind         string            `yaml:"kind"`
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Product      string            `yaml:"product"`
	Variables    []EntrySpec       `yaml:"variables"`
	Formulas     []FormulaSpec     `yaml:"formulas"`
	Coefficients []CoefficientSpec `yaml:"coefficients"`
}

// EntrySpec is a calculator variable with an optional default value.
type EntrySpec struct {
	Code  string  `yaml:"code"`
	Value *string `yaml:"value"`
	Type  string  `yaml:"type"`
}

// FormulaSpec is a named list of lines.
type FormulaSpec struct {
	Name  string     `yaml:"name"`
	Lines []LineSpec `yaml:"lines"`
}

// LineSpec is one formula line.
type LineSpec struct {
	Seq   *int           `yaml:"seq"`
	If    *ConditionSpec `yaml:"if"`
	Left  string         `yaml:"left"`
	Op    string         `yaml:"op"`
	Right string         `yaml:"right"`
	Set   string         `yaml:"set"`
	Post  string         `yaml:"post"`
}

// ConditionSpec gates a line.
type ConditionSpec struct {
	Left  string `yaml:"left"`
	Op    string `yaml:"op"`
	Right string `yaml:"right"`
}

// CoefficientSpec binds a coefficient variable to its table columns.
type CoefficientSpec struct {
	Code    string       `yaml:"code"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec is one coefficient column.
type ColumnSpec struct {
	Var   string `yaml:"var"`
	Index int    `yaml:"index"`
	Op    string `yaml:"op"`
	Sort  string `yaml:"sort"`
	Kind  string `yaml:"kind"`
}

// CoefficientsFile holds the rows of one coefficient table.
type CoefficientsFile struct {
	Kind       string    `yaml:"kind"`
	Calculator string    `yaml:"calculator"`
	Code       string    `yaml:"code"`
	Rows       []RowSpec `yaml:"rows"`
}

// RowSpec is one table row: condition values and the result.
type RowSpec struct {
	When   []string `yaml:"when"`
	Result string   `yaml:"result"`
}
