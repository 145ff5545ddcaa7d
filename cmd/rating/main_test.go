package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"mercator-hq/rating/pkg/cli"
	"mercator-hq/rating/pkg/config"
)

const exampleCatalog = "../../examples/catalog"

// writeConfig writes a config using the in-memory store and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  backend: memory
catalog:
  dir: ` + exampleCatalog + `
telemetry:
  logging:
    level: error
` + extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, catalogDir, format, verbose = "", "", "", false
	priceFlags = struct {
		calculator    string
		document      string
		set           []string
		template      string
		printDocument bool
	}{}
	resolveFlags.product, resolveFlags.document, resolveFlags.template = "", "", ""
	coefficientFlags.calculator, coefficientFlags.code, coefficientFlags.to = "", "", ""
	coefficientFlags.set = nil
	syncFlags.watch = false
	checkFlags.timeout = 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestPrice(t *testing.T) {
	cfg := writeConfig(t, "")

	tests := []struct {
		name string
		args []string
		want map[string]string
	}{
		{
			name: "document inputs",
			args: nil,
			want: map[string]string{
				"base_rate":  "0.05",
				"age_factor": "1.0",
				"net":        "1050",
				"premium":    "1050",
				"tax":        "210",
				"total":      "1260",
			},
		},
		{
			name: "override region",
			args: []string{"--set", "region=US"},
			want: map[string]string{
				"base_rate": "0.07",
				"premium":   "1450",
				"tax":       "290",
				"total":     "1740",
			},
		},
		{
			name: "young driver without claims",
			args: []string{"--set", "insured_age_issue=20", "--set", "claims_total=0"},
			want: map[string]string{
				"age_factor": "1.5",
				"premium":    "1500",
				"total":      "1800",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"price", "-c", cfg, "-k", "motor-v1", "-d", "../../examples/quote.json", "-o", "json"}, tt.args...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("price failed: %v", err)
			}

			var result priceResult
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("invalid JSON output: %v\n%s", err, out)
			}
			if result.RunID == "" || result.Calculator != "motor-v1" {
				t.Errorf("result header = %q/%q", result.RunID, result.Calculator)
			}

			got := make(map[string]string)
			for _, v := range result.Variables {
				if v.Value != nil {
					got[v.Code] = *v.Value
				}
			}
			for code, want := range tt.want {
				if got[code] != want {
					t.Errorf("%s = %q, want %q", code, got[code], want)
				}
			}
		})
	}
}

func TestPrice_EnrichedDocument(t *testing.T) {
	out, err := execute(t, "price", "-c", writeConfig(t, ""), "-k", "motor-v1",
		"-d", "../../examples/quote.json", "--print-document")
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}

	checks := map[string]string{
		"policy.premium": "1050",
		"policy.tax":     "210",
		"rating.total":   "1260",
		"rating.net":     "1050",
		"policy.region":  "EU",
	}
	for path, want := range checks {
		if got := gjson.Get(out, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if gjson.Get(out, "policy.premium").Type != gjson.Number {
		t.Errorf("policy.premium should be written as a number: %s", gjson.Get(out, "policy.premium").Raw)
	}
}

func TestPrice_Template(t *testing.T) {
	out, err := execute(t, "price", "-c", writeConfig(t, ""), "-k", "motor-v1",
		"-d", "../../examples/quote.json", "--template", "Premium ${premium} for ${drivers}")
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}
	if want := "Premium 1050 for Ada, Grace\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestPrice_TextTable(t *testing.T) {
	out, err := execute(t, "price", "-c", writeConfig(t, ""), "-k", "motor-v1", "-d", "../../examples/quote.json")
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "CODE") {
		t.Errorf("first line = %q, want table header", lines[0])
	}
	if !strings.Contains(out, "1260") {
		t.Errorf("table misses total:\n%s", out)
	}
}

func TestPrice_Metrics(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "rating.prom")
	cfg := writeConfig(t, `
  metrics:
    enabled: true
    textfile: `+textfile+`
`)

	if _, err := execute(t, "price", "-c", cfg, "-k", "motor-v1", "-d", "../../examples/quote.json"); err != nil {
		t.Fatalf("price failed: %v", err)
	}

	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	for _, metric := range []string{"rating_engine_runs_total", "rating_engine_coefficient_lookups_total"} {
		if !strings.Contains(string(data), metric) {
			t.Errorf("textfile misses %s", metric)
		}
	}
}

func TestPrice_Errors(t *testing.T) {
	cfg := writeConfig(t, "")

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"missing calculator", []string{"price", "-c", cfg}, cli.ExitUsage},
		{"bad assignment", []string{"price", "-c", cfg, "-k", "motor-v1", "--set", "region"}, cli.ExitUsage},
		{"unknown calculator", []string{"price", "-c", cfg, "-k", "home-v1"}, cli.ExitFailure},
		{"missing document", []string{"price", "-c", cfg, "-k", "motor-v1", "-d", "nope.json"}, cli.ExitFailure},
		{"bad format", []string{"price", "-c", cfg, "-k", "motor-v1", "-o", "xml"}, cli.ExitUsage},
		{"missing config", []string{"price", "-c", "nope.yaml", "-k", "motor-v1"}, cli.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := cli.ExitCode(err); got != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	out, err := execute(t, "resolve", "-c", writeConfig(t, ""), "-p", "motor",
		"-d", "../../examples/quote.json", "-o", "json",
		"insured_age_issue", "claims_total", "drivers", "unknown")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	want := map[string]string{
		"insured_age_issue": "35",
		"claims_total":      "150",
		"drivers":           "Ada, Grace",
	}
	variables := gjson.Get(out, "variables").Array()
	if len(variables) != 4 {
		t.Fatalf("expected 4 variables, got %d:\n%s", len(variables), out)
	}
	for _, v := range variables {
		code := v.Get("code").String()
		if code == "unknown" {
			if v.Get("value").Type != gjson.Null || v.Get("source").Exists() {
				t.Errorf("unknown variable = %s", v.Raw)
			}
			continue
		}
		if got := v.Get("value").String(); got != want[code] {
			t.Errorf("%s = %q, want %q", code, got, want[code])
		}
	}
}

func TestResolve_UnknownProduct(t *testing.T) {
	_, err := execute(t, "resolve", "-c", writeConfig(t, ""), "-p", "home")
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
}

func TestLint(t *testing.T) {
	out, err := execute(t, "lint", "-c", writeConfig(t, ""))
	if err != nil {
		t.Fatalf("lint failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "✓") || !strings.Contains(out, "1 calculator(s)") {
		t.Errorf("output = %q", out)
	}
}

func TestLint_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("kind: calculator\nid: x\nbogus: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "lint", "-c", writeConfig(t, ""), "--catalog", dir, "-o", "json")
	if err == nil {
		t.Fatal("expected lint error")
	}
	var cmdErr *cli.CommandError
	if !errors.As(err, &cmdErr) {
		t.Errorf("error type = %T, want *cli.CommandError", err)
	}
	if gjson.Get(out, "valid").Bool() || len(gjson.Get(out, "errors").Array()) == 0 {
		t.Errorf("output = %s", out)
	}
}

func TestCoefficientLookup(t *testing.T) {
	cfg := writeConfig(t, "")

	tests := []struct {
		age  string
		want string
	}{
		{"18", "motor-v1/age_factor = 1.5\n"},
		{"64", "motor-v1/age_factor = 1.0\n"},
		{"70", "motor-v1/age_factor = 1.3\n"},
		{"17", "motor-v1/age_factor: no matching row\n"},
	}

	for _, tt := range tests {
		t.Run(tt.age, func(t *testing.T) {
			out, err := execute(t, "coefficient", "lookup", "-c", cfg, "-k", "motor-v1",
				"--code", "age_factor", "--set", "insured_age_issue="+tt.age)
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestCoefficientList_CSV(t *testing.T) {
	out, err := execute(t, "coefficient", "list", "-c", writeConfig(t, ""),
		"-k", "motor-v1", "--code", "age_factor", "-o", "csv")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := "C0,C1,RESULT\n18,24,1.5\n25,64,1.0\n65,120,1.3\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCoefficientCopy(t *testing.T) {
	db := filepath.Join(t.TempDir(), "coefficients.db")
	cfg := writeConfig(t, "")
	t.Setenv("RATING_STORAGE_BACKEND", "sqlite")
	t.Setenv("RATING_STORAGE_PATH", db)

	out, err := execute(t, "coefficient", "copy", "-c", cfg, "-k", "motor-v1", "--to", "motor-v2", "--code", "base_rate")
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if want := "Copied 2 row(s) of base_rate from motor-v1 to motor-v2\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	// The copy persists in the SQLite store across invocations.
	out, err = execute(t, "coefficient", "list", "-c", cfg, "-k", "motor-v2", "--code", "base_rate", "-o", "csv")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if want := "C0,RESULT\nEU,0.05\nUS,0.07\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestSync(t *testing.T) {
	out, err := execute(t, "sync", "-c", writeConfig(t, ""))
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if want := "Seeded 2 coefficient table(s) for tenant default\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "-c", writeConfig(t, ""), "-o", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if report.Status != "ready" {
		t.Errorf("status = %q, want ready", report.Status)
	}
	if len(report.Checks) != 2 || report.Checks[0].Name != "catalog" || report.Checks[1].Name != "storage" {
		t.Errorf("unexpected checks: %+v", report.Checks)
	}
}

func TestCheck_UnwritableTextfile(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "missing", "rating.prom")
	cfg := writeConfig(t, `
  metrics:
    enabled: true
    textfile: `+textfile+`
`)

	_, err := execute(t, "check", "-c", cfg)
	if err == nil {
		t.Fatal("expected check to fail")
	}
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Errorf("exit code = %d, want %d", code, cli.ExitFailure)
	}
}

func TestSetup_FlagOverrides(t *testing.T) {
	cfg := writeConfig(t, "")
	dir, err := filepath.Abs(exampleCatalog)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "lint", "-c", cfg, "--catalog", dir, "-v"); err != nil {
		t.Fatalf("lint failed: %v", err)
	}

	got := config.GetConfig()
	if got.Catalog.Dir != dir {
		t.Errorf("catalog dir = %q, want %q", got.Catalog.Dir, dir)
	}
	if got.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", got.Telemetry.Logging.Level)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "Rating "+Version+"\n") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Go Version: go") {
		t.Errorf("output misses Go version: %q", out)
	}
}
