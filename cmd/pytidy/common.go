package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pytidy/internal/config"
	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
	"pytidy/internal/engine"
	"pytidy/internal/observ"
	"pytidy/internal/source"
)

const stdinPath = "-"

// useColor resolves --color for the given stream.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return false
	}
	return mode == "on" || (mode == "auto" && isTerminal(f))
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 0
}

func prettyOpts(cmd *cobra.Command, fullPath bool) diagfmt.PrettyOpts {
	opts := diagfmt.PrettyOpts{
		Color:   useColor(cmd, os.Stdout),
		Context: 1,
		Width:   terminalWidth(),
	}
	if fullPath {
		opts.PathMode = diagfmt.PathModeAbsolute
	}
	if wd, err := os.Getwd(); err == nil {
		opts.BaseDir = wd
	}
	return opts
}

// loadConfig reads --config, or discovers pytidy.toml upwards from startDir.
func loadConfig(cmd *cobra.Command, startDir string) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	loader := config.NewLoader(cliLog)
	if path != "" {
		cfg, err := loader.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cliLog.WithField("path", path).Debug("[pytidy] configuration loaded")
		return cfg, nil
	}
	if startDir == "" || startDir == stdinPath {
		startDir = "."
	}
	if info, err := os.Stat(startDir); err == nil && !info.IsDir() {
		startDir = filepath.Dir(startDir)
	}
	cfg, found, err := loader.Discover(startDir)
	if err != nil {
		return config.Config{}, err
	}
	if found != "" {
		cliLog.WithField("path", found).Debug("[pytidy] configuration discovered")
	}
	return cfg, nil
}

// applyPasses narrows cfg.EnabledPasses to the comma-separated list.
func applyPasses(cfg *config.Config, list string) error {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var passes []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			passes = append(passes, p)
		}
	}
	cfg.EnabledPasses = passes
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("--passes: %w", err)
	}
	return nil
}

// runTargets processes the command arguments. A single "-" reads standard
// input; anything else is expanded to the source files below it.
func runTargets(cmd *cobra.Command, args []string, cfg config.Config, opts driver.Options, exclude []string) (*driver.Result, error) {
	if len(args) == 1 && args[0] == stdinPath {
		return runStdin(cfg, opts)
	}
	files, err := driver.ListFiles(afero.NewOsFs(), args, exclude)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", driver.SourceExt, strings.Join(args, ", "))
	}
	if opts.Log == nil {
		opts.Log = cliLog
	}
	return driver.Run(cmd.Context(), afero.NewOsFs(), files, cfg, opts)
}

func runStdin(cfg config.Config, opts driver.Options) (*driver.Result, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	started := time.Now()
	engineOpts := []engine.Option{engine.WithLogger(cliLog)}
	if opts.AnalyzeOnly {
		engineOpts = append(engineOpts, engine.AnalyzeOnly())
	}
	fr := driver.FileResult{Path: stdinPath}
	fr.Output, fr.Err = engine.Run(string(data), cfg, engineOpts...)
	stdinText = string(data)
	return &driver.Result{Started: started, Duration: time.Since(started), Files: []driver.FileResult{fr}}, nil
}

// stdinText keeps standard input for renderers that need the source again.
var stdinText string

// sourceOf returns the original text of a processed file.
func sourceOf(r driver.FileResult) (*source.File, string) {
	if r.Output != nil && r.Output.Original != nil {
		return r.Output.Original.File, r.Output.Original.Text()
	}
	if r.Path == stdinPath {
		return source.NewFile("", []byte(stdinText)), stdinText
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, ""
	}
	return source.NewFile(r.Path, data), string(data)
}

func displayName(r driver.FileResult) string {
	if r.Path == stdinPath {
		return "<stdin>"
	}
	return r.Path
}

// exitStatus turns syntax errors and, when strict, remaining findings into
// a failing exit.
func exitStatus(res *driver.Result, strict bool) error {
	for _, f := range res.Files {
		if f.Err != nil {
			return errFindings
		}
		if strict && f.Output != nil && len(f.Output.FindingsAfter) > 0 {
			return errFindings
		}
	}
	return nil
}

// printTimings writes the phase table of one run.
func printTimings(out io.Writer, rep observ.Report) {
	if out == nil {
		return
	}
	for _, p := range rep.Phases {
		line := fmt.Sprintf("%-24s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			line += "  (" + p.Note + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%-24s %8.2f ms\n", "total", rep.TotalMS)
}

func showTimings(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("timings")
	return on
}

func isQuiet(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("quiet")
	return on
}

// readInput loads one source file, or standard input for "-".
func readInput(path string) (*source.File, error) {
	if path == stdinPath {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return source.NewFile("", data), nil
	}
	data, err := afero.ReadFile(afero.NewOsFs(), path)
	if err != nil {
		return nil, err
	}
	return source.NewFile(path, data), nil
}
