package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Format is an output format of the CLI.
type Format uint8

const (
	FormatPretty Format = iota
	FormatJSON
	FormatYAML
	FormatSARIF
	FormatPatch
)

var formatNames = map[Format]string{
	FormatPretty: "pretty",
	FormatJSON:   "json",
	FormatYAML:   "yaml",
	FormatSARIF:  "sarif",
	FormatPatch:  "patch",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatPretty, fmt.Errorf("unknown format %q (want pretty, json, yaml, sarif or patch)", s)
}

// PrettyOpts configures pretty-printing of findings and diffs.
type PrettyOpts struct {
	Color     bool
	Context   int8
	PathMode  PathMode
	BaseDir   string
	Width     int // ширина терминала, 0 - 120 колонок
	ShowNotes bool
}

// JSONOpts configures JSON and YAML documents.
type JSONOpts struct {
	PathMode PathMode
	BaseDir  string
	Max      int // обрезка списка находок, 0 - без ограничения
	// IncludeDiff adds the diff entries of every file.
	IncludeDiff  bool
	IncludeNotes bool
	IncludeText  bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
	PathMode       PathMode
	BaseDir        string
}

// formatPath renders path according to mode.
func formatPath(path string, mode PathMode, base string) string {
	if path == "" {
		return "<stdin>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative:
		return relativeTo(path, base)
	case PathModeBasename:
		return filepath.Base(path)
	default:
		if filepath.IsAbs(path) && base != "" {
			if rel := relativeTo(path, base); !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
		return path
	}
}

func relativeTo(path, base string) string {
	if base == "" {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return path
	}
	return rel
}
