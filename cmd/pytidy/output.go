package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
	"pytidy/internal/version"
)

// view selects what the pretty format shows.
type view uint8

const (
	viewFindings view = iota
	viewDiff
	viewReport
)

type outputOpts struct {
	format   diagfmt.Format
	view     view
	notes    bool
	fullPath bool
	max      int
	withDiff bool
	withText bool
}

func (o outputOpts) jsonOpts() diagfmt.JSONOpts {
	opts := diagfmt.JSONOpts{
		Max:          o.max,
		IncludeNotes: o.notes,
		IncludeDiff:  o.withDiff,
		IncludeText:  o.withText,
	}
	if o.fullPath {
		opts.PathMode = diagfmt.PathModeAbsolute
	}
	if wd, err := os.Getwd(); err == nil {
		opts.BaseDir = wd
	}
	return opts
}

// render writes res to w in the requested format.
func render(cmd *cobra.Command, w io.Writer, res *driver.Result, o outputOpts) error {
	var summary *driver.Summary
	if len(res.Files) > 1 {
		s := res.Summary()
		summary = &s
	}

	switch o.format {
	case diagfmt.FormatJSON:
		return diagfmt.JSON(w, diagfmt.BuildDocument(res.Files, summary, o.jsonOpts()))
	case diagfmt.FormatYAML:
		return diagfmt.YAML(w, diagfmt.BuildDocument(res.Files, summary, o.jsonOpts()))
	case diagfmt.FormatSARIF:
		jo := o.jsonOpts()
		return diagfmt.Sarif(w, res.Files, diagfmt.SarifRunMeta{
			ToolName:       "pytidy",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
			PathMode:       jo.PathMode,
			BaseDir:        jo.BaseDir,
		})
	case diagfmt.FormatPatch:
		for _, r := range res.Files {
			if r.Output == nil {
				continue
			}
			_, original := sourceOf(r)
			if err := diagfmt.Patch(w, r.Path, original, r.Output.TransformedText, 0); err != nil {
				return err
			}
		}
		return nil
	}

	popts := prettyOpts(cmd, o.fullPath)
	popts.ShowNotes = o.notes
	for _, r := range res.Files {
		file, _ := sourceOf(r)
		if r.Err != nil {
			if pe := r.ParseError(); pe != nil {
				diagfmt.PrettySyntaxError(w, displayName(r), file, pe, popts)
			} else {
				fmt.Fprintf(w, "%s: %v\n", displayName(r), r.Err)
			}
			continue
		}
		switch o.view {
		case viewFindings:
			findings := r.Output.FindingsBefore
			if o.max > 0 && len(findings) > o.max {
				findings = findings[:o.max]
			}
			diagfmt.Pretty(w, displayName(r), file, findings, popts)
		case viewDiff:
			if !r.Output.Changed() && len(r.Output.Report.Errors) == 0 {
				continue
			}
			fmt.Fprintf(w, "== %s ==\n", displayName(r))
			diagfmt.Diff(w, r.Output.Diff, popts)
			fmt.Fprintln(w)
			diagfmt.PrettyReport(w, r.Output.Report, popts)
		case viewReport:
			if !r.Output.Changed() && len(r.Output.Report.Errors) == 0 {
				continue
			}
			header := displayName(r)
			if r.Written != "" {
				header += " -> " + r.Written
			}
			fmt.Fprintf(w, "== %s ==\n", header)
			diagfmt.PrettyReport(w, r.Output.Report, popts)
		}
	}
	if summary != nil && !isQuiet(cmd) {
		fmt.Fprintln(w)
		fmt.Fprint(w, summary.String())
	}
	return nil
}

// reportTimings prints per-phase timings for a single file, or the run
// duration for several.
func reportTimings(cmd *cobra.Command, res *driver.Result) {
	if !showTimings(cmd) {
		return
	}
	if len(res.Files) == 1 && res.Files[0].Output != nil {
		printTimings(os.Stderr, res.Files[0].Output.Timings)
		return
	}
	fmt.Fprintf(os.Stderr, "processed %d files in %.1f ms\n", len(res.Files), float64(res.Duration.Microseconds())/1000)
}
