package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"pytidy/internal/diag"
	"pytidy/internal/driver"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"

	syntaxErrorRule = "PT900"
)

type SarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool        SarifTool         `json:"tool"`
	Invocations []SarifInvocation `json:"invocations,omitempty"`
	Results     []SarifResult     `json:"results"`
}

type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

type SarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []SarifRule `json:"rules,omitempty"`
}

type SarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription SarifMessage `json:"shortDescription"`
}

type SarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type SarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SarifMessage    `json:"message"`
	Locations []SarifLocation `json:"locations,omitempty"`
}

type SarifMessage struct {
	Text string `json:"text"`
}

type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           *SarifRegion          `json:"region,omitempty"`
}

type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

type SarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
}

// BuildSarif converts the findings of the original texts into a SARIF log.
// Files that failed to parse contribute one error result each.
func BuildSarif(results []driver.FileResult, meta SarifRunMeta) SarifLog {
	run := SarifRun{
		Tool:    SarifTool{Driver: SarifDriver{Name: meta.ToolName, Version: meta.ToolVersion}},
		Results: []SarifResult{},
	}
	used := make(map[diag.Category]bool)
	syntax := false
	failed := false

	for _, r := range results {
		uri := filepath.ToSlash(formatPath(r.Path, meta.PathMode, meta.BaseDir))
		if r.Err != nil {
			failed = true
			res := SarifResult{RuleID: syntaxErrorRule, Level: "error", Message: SarifMessage{Text: r.Err.Error()}}
			loc := SarifPhysicalLocation{ArtifactLocation: SarifArtifactLocation{URI: uri}}
			if pe := r.ParseError(); pe != nil {
				syntax = true
				res.Message.Text = pe.Msg
				loc.Region = &SarifRegion{StartLine: pe.Line, StartColumn: pe.Column}
			} else {
				res.RuleID = "PT000"
			}
			res.Locations = []SarifLocation{{PhysicalLocation: loc}}
			run.Results = append(run.Results, res)
			continue
		}
		if r.Output == nil {
			continue
		}
		for _, f := range r.Output.FindingsBefore {
			used[f.Category] = true
			region := &SarifRegion{StartLine: max(f.Line, 1), StartColumn: f.Column, EndLine: f.EndLine}
			run.Results = append(run.Results, SarifResult{
				RuleID:  f.Category.ID(),
				Level:   sarifLevel(f.Severity),
				Message: SarifMessage{Text: f.Message},
				Locations: []SarifLocation{{PhysicalLocation: SarifPhysicalLocation{
					ArtifactLocation: SarifArtifactLocation{URI: uri},
					Region:           region,
				}}},
			})
		}
	}

	for _, c := range diag.Categories() {
		if !used[c] {
			continue
		}
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, SarifRule{
			ID:               c.ID(),
			Name:             c.String(),
			ShortDescription: SarifMessage{Text: c.Title()},
		})
	}
	if syntax {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, SarifRule{
			ID:               syntaxErrorRule,
			Name:             "syntax-error",
			ShortDescription: SarifMessage{Text: "File could not be parsed"},
		})
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []SarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !failed}}
	}
	return SarifLog{Version: sarifVersion, Schema: sarifSchema, Runs: []SarifRun{run}}
}

// Sarif форматирует находки в SARIF формат (v2.1.0)
func Sarif(w io.Writer, results []driver.FileResult, meta SarifRunMeta) error {
	log := BuildSarif(results, meta)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&log)
}

func sarifLevel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}
