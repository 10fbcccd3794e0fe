package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
)

var refactorCmd = &cobra.Command{
	Use:     "refactor [flags] <file.py|directory|->...",
	Aliases: []string{"fix"},
	Short:   "Rewrite source with the enabled refactoring passes",
	Long: `Refactor runs the enabled passes over each file. A single file (or standard
input) is printed rewritten unless --write or --out is given; for several
files only the reports are shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRefactor,
}

func init() {
	refactorCmd.Flags().Bool("write", false, "replace files with their rewritten text")
	refactorCmd.Flags().String("out", "", "write rewritten files below this directory instead")
	refactorCmd.Flags().String("passes", "", "comma-separated passes to run (default: enabled_passes)")
	refactorCmd.Flags().String("format", "text", "output format (text|pretty|json|yaml|patch)")
	refactorCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	refactorCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
}

func runRefactor(cmd *cobra.Command, args []string) error {
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	passes, err := cmd.Flags().GetString("passes")
	if err != nil {
		return fmt.Errorf("failed to get passes flag: %w", err)
	}
	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return fmt.Errorf("failed to get exclude flag: %w", err)
	}
	if write && outDir != "" {
		return fmt.Errorf("--write and --out are mutually exclusive")
	}
	stdin := len(args) == 1 && args[0] == stdinPath
	if stdin && (write || outDir != "") {
		return fmt.Errorf("standard input can only be printed")
	}

	textMode := formatName == "text"
	format := diagfmt.FormatPretty
	if !textMode {
		if format, err = diagfmt.ParseFormat(formatName); err != nil {
			return err
		}
		if format == diagfmt.FormatSARIF {
			return fmt.Errorf("sarif describes findings; use analyze --format sarif")
		}
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := applyPasses(&cfg, passes); err != nil {
		return err
	}

	opts := driver.Options{Jobs: jobs, Write: write, OutDir: outDir}
	if outDir != "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Base = wd
		}
	}
	res, err := runTargets(cmd, args, cfg, opts, exclude)
	if err != nil {
		return fmt.Errorf("refactor failed: %w", err)
	}

	if textMode {
		if len(res.Files) != 1 || write || outDir != "" {
			textMode = false
		}
	}
	if textMode {
		r := res.Files[0]
		if r.Output != nil {
			if _, err := io.WriteString(os.Stdout, r.Output.TransformedText); err != nil {
				return err
			}
			if !isQuiet(cmd) {
				diagfmt.PrettyReport(os.Stderr, r.Output.Report, prettyOpts(cmd, false))
			}
		} else if err := render(cmd, os.Stderr, res, outputOpts{view: viewReport}); err != nil {
			return err
		}
	} else {
		err = render(cmd, os.Stdout, res, outputOpts{
			format:   format,
			view:     viewReport,
			withDiff: true,
			withText: !write && outDir == "",
		})
		if err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
	}
	reportTimings(cmd, res)
	return exitStatus(res, false)
}
