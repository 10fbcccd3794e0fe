package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pytidy/internal/diagfmt"
	"pytidy/internal/lexer"
	"pytidy/internal/parser"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.py",
	Short: "Tokenize a Python source file",
	Long:  `Tokenize breaks down a Python source file into its tokens together with their leading trivia`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json|yaml)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format: %s", format)
	}

	file, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	tokens, lexErr := lexer.Tokenize(file, lexer.Options{})

	// Ошибку лексера печатаем в stderr, токены до неё всё равно выводим
	if lexErr != nil {
		var le *lexer.Error
		if errors.As(lexErr, &le) {
			pos := file.Position(le.Span.Start)
			pe := &parser.Error{Line: int(pos.Line), Column: int(pos.Col), Offset: le.Span.Start, Msg: le.Msg}
			opts := prettyOpts(cmd, false)
			opts.Color = useColor(cmd, os.Stderr)
			diagfmt.PrettySyntaxError(os.Stderr, args[0], file, pe, opts)
		} else {
			fmt.Fprintln(os.Stderr, lexErr)
		}
	}

	switch format {
	case "json":
		err = diagfmt.FormatTokensJSON(os.Stdout, tokens, file)
	case "yaml":
		err = diagfmt.FormatTokensYAML(os.Stdout, tokens, file)
	default:
		err = diagfmt.FormatTokensPretty(os.Stdout, tokens, file)
	}
	if err != nil {
		return err
	}
	if lexErr != nil {
		return errFindings
	}
	return nil
}
