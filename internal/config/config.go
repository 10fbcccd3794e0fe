// Package config holds the tunables of one pytidy invocation and loads them
// from pytidy.toml or the [tool.pytidy] table of pyproject.toml.
package config

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"pytidy/internal/diag"
)

// Pass names in pipeline order.
const (
	PassImports    = "imports"
	PassDeadCode   = "deadcode"
	PassNaming     = "naming"
	PassExtract    = "extract"
	PassDocstrings = "docstrings"
	PassSimplify   = "simplify"
	PassFormat     = "format"
)

// PassOrder is the fixed order in which enabled passes run.
var PassOrder = []string{
	PassImports, PassDeadCode, PassNaming, PassExtract, PassDocstrings, PassSimplify, PassFormat,
}

// Config is immutable for the duration of one invocation.
type Config struct {
	MaxFunctionLength        int       `toml:"max_function_length" json:"max_function_length" validate:"min=1"`
	MaxArguments             int       `toml:"max_arguments" json:"max_arguments" validate:"min=0"`
	MaxLineLength            int       `toml:"max_line_length" json:"max_line_length" validate:"min=20,max=1000"`
	MagicNumberWhitelist     NumberSet `toml:"magic_number_whitelist" json:"magic_number_whitelist"`
	DuplicationMinStatements int       `toml:"duplication_min_statements" json:"duplication_min_statements" validate:"min=2"`
	EnabledPasses            []string  `toml:"enabled_passes" json:"enabled_passes" validate:"dive,pass"`
	PerCheckNodeBudget       int       `toml:"per_check_node_budget" json:"per_check_node_budget" validate:"min=0"`

	MaxLoopDepth       int      `toml:"max_loop_depth" json:"max_loop_depth" validate:"min=1"`
	MaxExpressionDepth int      `toml:"max_expression_depth" json:"max_expression_depth" validate:"min=1"`
	MaxBoolOperands    int      `toml:"max_bool_operands" json:"max_bool_operands" validate:"min=1"`
	AllowedShortNames  []string `toml:"allowed_short_names" json:"allowed_short_names" validate:"dive,required"`
	LocalPackages      []string `toml:"local_packages" json:"local_packages" validate:"dive,required"`
	IndentWidth        int      `toml:"indent_width" json:"indent_width" validate:"min=1,max=8"`
	EnabledChecks      []string `toml:"enabled_checks" json:"enabled_checks" validate:"dive,category"`
	// MaxPassRounds bounds the fixpoint iteration of a single pass.
	MaxPassRounds int `toml:"max_pass_rounds" json:"max_pass_rounds" validate:"min=1,max=32"`
}

// Default returns the documented defaults.
func Default() Config {
	checks := make([]string, 0, len(diag.Categories()))
	for _, c := range diag.Categories() {
		checks = append(checks, c.String())
	}
	return Config{
		MaxFunctionLength:        50,
		MaxArguments:             5,
		MaxLineLength:            100,
		MagicNumberWhitelist:     NumberSet{0, 1, -1},
		DuplicationMinStatements: 4,
		EnabledPasses:            slices.Clone(PassOrder),
		PerCheckNodeBudget:       100_000,
		MaxLoopDepth:             2,
		MaxExpressionDepth:       8,
		MaxBoolOperands:          3,
		AllowedShortNames:        []string{"i", "j", "k", "x", "y", "z", "_"},
		LocalPackages:            []string{},
		IndentWidth:              4,
		EnabledChecks:            checks,
		MaxPassRounds:            4,
	}
}

// PassEnabled reports whether the named pass should run.
func (c Config) PassEnabled(name string) bool {
	return slices.Contains(c.EnabledPasses, name)
}

// CheckEnabled reports whether the analyzer should run the check for cat.
func (c Config) CheckEnabled(cat diag.Category) bool {
	for _, name := range c.EnabledChecks {
		if got, ok := diag.ParseCategory(name); ok && got == cat {
			return true
		}
	}
	return false
}

// AllowedShort reports whether a short name is explicitly allowed.
func (c Config) AllowedShort(name string) bool {
	return slices.Contains(c.AllowedShortNames, name)
}

// IsLocalPackage reports whether the top-level module belongs to the project.
func (c Config) IsLocalPackage(module string) bool {
	top, _, _ := strings.Cut(module, ".")
	return slices.Contains(c.LocalPackages, top)
}

// NumberSet is a set of numeric literal values.
// It decodes from a TOML array of integers, floats or numeric strings.
type NumberSet []float64

// Contains reports whether v is in the set.
func (s NumberSet) Contains(v float64) bool {
	for _, x := range s {
		if x == v || (math.IsNaN(x) && math.IsNaN(v)) {
			return true
		}
	}
	return false
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *NumberSet) UnmarshalTOML(data any) error {
	items, ok := data.([]any)
	if !ok {
		return fmt.Errorf("magic_number_whitelist: expected an array, got %T", data)
	}
	out := make(NumberSet, 0, len(items))
	for _, it := range items {
		v, err := toFloat(it)
		if err != nil {
			return fmt.Errorf("magic_number_whitelist: %w", err)
		}
		out = append(out, v)
	}
	*s = out
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), "_", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("invalid number %v (%T)", v, v)
	}
}
