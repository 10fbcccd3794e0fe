package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file.py|directory|->...",
	Short: "Report findings without changing anything",
	Long:  `Analyze parses every given Python file (or all *.py files below a directory) and reports its findings`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json|yaml|sarif)")
	analyzeCmd.Flags().Bool("with-notes", false, "include finding notes in output")
	analyzeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	analyzeCmd.Flags().Int("max-findings", 0, "maximum number of findings shown per file (0=all)")
	analyzeCmd.Flags().Bool("strict", false, "exit with status 1 when any finding is reported")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	analyzeCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := diagfmt.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == diagfmt.FormatPatch {
		return fmt.Errorf("analyze does not rewrite code; use diff --format patch")
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxFindings, err := cmd.Flags().GetInt("max-findings")
	if err != nil {
		return fmt.Errorf("failed to get max-findings flag: %w", err)
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return fmt.Errorf("failed to get strict flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return fmt.Errorf("failed to get exclude flag: %w", err)
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := runTargets(cmd, args, cfg, driver.Options{Jobs: jobs, AnalyzeOnly: true}, exclude)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	err = render(cmd, os.Stdout, res, outputOpts{
		format:   format,
		view:     viewFindings,
		notes:    withNotes,
		fullPath: fullPath,
		max:      maxFindings,
	})
	if err != nil {
		return fmt.Errorf("failed to format findings: %w", err)
	}
	reportTimings(cmd, res)
	return exitStatus(res, strict)
}
