package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
)

var diffCmd = &cobra.Command{
	Use:   "diff [flags] <file.py|directory|->...",
	Short: "Show what refactoring would change",
	Long:  `Diff runs the refactoring passes without writing anything and shows the original and rewritten text side by side, or as a unified patch`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().String("format", "pretty", "output format (pretty|patch|json|yaml)")
	diffCmd.Flags().String("passes", "", "comma-separated passes to run (default: enabled_passes)")
	diffCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diffCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
	diffCmd.Flags().Bool("exit-code", false, "exit with status 1 when any file would change")
}

func runDiff(cmd *cobra.Command, args []string) error {
	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := diagfmt.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == diagfmt.FormatSARIF {
		return fmt.Errorf("sarif describes findings; use analyze --format sarif")
	}
	passes, err := cmd.Flags().GetString("passes")
	if err != nil {
		return fmt.Errorf("failed to get passes flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return fmt.Errorf("failed to get exclude flag: %w", err)
	}
	exitCode, err := cmd.Flags().GetBool("exit-code")
	if err != nil {
		return fmt.Errorf("failed to get exit-code flag: %w", err)
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := applyPasses(&cfg, passes); err != nil {
		return err
	}
	res, err := runTargets(cmd, args, cfg, driver.Options{Jobs: jobs}, exclude)
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}

	if err := render(cmd, os.Stdout, res, outputOpts{format: format, view: viewDiff, withDiff: true}); err != nil {
		return fmt.Errorf("failed to format diff: %w", err)
	}
	reportTimings(cmd, res)
	if err := exitStatus(res, false); err != nil {
		return err
	}
	if exitCode {
		for _, f := range res.Files {
			if f.Output != nil && f.Output.Changed() {
				return errFindings
			}
		}
	}
	return nil
}
