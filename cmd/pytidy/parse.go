package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pytidy/internal/diagfmt"
	"pytidy/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.py",
	Short: "Parse a Python source file and print its tree",
	Long: `Parse builds the lossless syntax tree of a Python file. The default output
is an indented dump of the tree; --format render prints the text re-created
from the tree, which always equals the input.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "dump", "output format (dump|render)")
	parseCmd.Flags().Bool("check", false, "only verify that rendering the tree reproduces the input")
	parseCmd.Flags().Int("max-depth", 0, "nesting limit for the parser (0=default)")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return fmt.Errorf("failed to get check flag: %w", err)
	}
	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return fmt.Errorf("failed to get max-depth flag: %w", err)
	}

	file, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	unit, err := parser.ParseFile(file, parser.Options{MaxDepth: maxDepth})
	if err != nil {
		if pe, ok := err.(*parser.Error); ok {
			opts := prettyOpts(cmd, false)
			opts.Color = useColor(cmd, os.Stderr)
			diagfmt.PrettySyntaxError(os.Stderr, args[0], file, pe, opts)
			return errFindings
		}
		return fmt.Errorf("parse failed: %w", err)
	}

	if check {
		if unit.Render() != unit.Text() {
			return fmt.Errorf("%s: rendered tree differs from the source", args[0])
		}
		if !isQuiet(cmd) {
			fmt.Fprintf(os.Stdout, "%s: round trip ok (%d lines)\n", args[0], file.LineCount())
		}
		return nil
	}

	switch format {
	case "dump":
		_, err = io.WriteString(os.Stdout, unit.Tree.Dump(unit.Root()))
	case "render":
		_, err = io.WriteString(os.Stdout, unit.Render())
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return err
}
