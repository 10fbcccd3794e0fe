package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pytidy/internal/config"
	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
	"pytidy/internal/ui"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <directory|file.py>...",
	Short: "Process many files in parallel",
	Long: `Batch analyzes and refactors every Python file below the given paths in
parallel. One failing file never stops the others; results are cached on
disk by content and configuration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchJobs        int
	batchChanged     bool
	batchNoCache     bool
	batchClearCache  bool
	batchWrite       bool
	batchOut         string
	batchFormat      string
	batchUI          string
	batchAnalyzeOnly bool
	batchExclude     []string
)

func init() {
	batchCmd.Flags().IntVar(&batchJobs, "jobs", 0, "max parallel workers (0=auto)")
	batchCmd.Flags().BoolVar(&batchChanged, "changed", false, "only process files modified, added or untracked in the git work tree")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable the on-disk result cache")
	batchCmd.Flags().BoolVar(&batchClearCache, "clear-cache", false, "drop every cached result before running")
	batchCmd.Flags().BoolVar(&batchWrite, "write", false, "replace files with their rewritten text")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write rewritten files below this directory instead")
	batchCmd.Flags().StringVar(&batchFormat, "format", "pretty", "output format (pretty|json|yaml|sarif|patch)")
	batchCmd.Flags().StringVar(&batchUI, "ui", "auto", "progress UI (auto|on|off)")
	batchCmd.Flags().BoolVar(&batchAnalyzeOnly, "analyze-only", false, "report findings without refactoring")
	batchCmd.Flags().StringSliceVar(&batchExclude, "exclude", nil, "glob patterns of files to skip")
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := diagfmt.ParseFormat(batchFormat)
	if err != nil {
		return err
	}
	mode, err := readUIMode(batchUI)
	if err != nil {
		return err
	}
	if batchWrite && batchOut != "" {
		return fmt.Errorf("--write and --out are mutually exclusive")
	}
	if batchAnalyzeOnly && (batchWrite || batchOut != "") {
		return fmt.Errorf("--analyze-only cannot write files")
	}

	fsys := afero.NewOsFs()
	files, err := batchFiles(fsys, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if !isQuiet(cmd) {
			fmt.Fprintln(os.Stderr, "nothing to do")
		}
		return nil
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	opts := driver.Options{
		Jobs:        batchJobs,
		AnalyzeOnly: batchAnalyzeOnly,
		Write:       batchWrite,
		OutDir:      batchOut,
		Log:         cliLog,
	}
	if wd, err := os.Getwd(); err == nil {
		opts.Base = wd
	}
	if !batchNoCache {
		cache, err := driver.OpenDiskCache(fsys, "pytidy")
		if err != nil {
			cliLog.WithError(err).Warn("[batch] disk cache disabled")
		} else {
			if batchClearCache {
				if err := cache.DropAll(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
			}
			opts.Cache = cache
		}
	}

	var res *driver.Result
	if shouldUseTUI(mode) && !isQuiet(cmd) {
		res, err = runBatchWithUI(cmd.Context(), "pytidy", fsys, files, cfg, opts)
	} else {
		res, err = driver.Run(cmd.Context(), fsys, files, cfg, opts)
	}
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	v := viewReport
	if batchAnalyzeOnly {
		v = viewFindings
	}
	if err := render(cmd, os.Stdout, res, outputOpts{format: format, view: v}); err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	reportTimings(cmd, res)
	return exitStatus(res, false)
}

// batchFiles expands the arguments, restricted to the git changes when
// --changed is set.
func batchFiles(fsys afero.Fs, args []string) ([]string, error) {
	files, err := driver.ListFiles(fsys, args, batchExclude)
	if err != nil {
		return nil, err
	}
	if !batchChanged {
		return files, nil
	}
	dir := args[0]
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	changed, err := driver.ChangedFiles(dir)
	if err != nil {
		if errors.Is(err, driver.ErrNotRepository) {
			return nil, fmt.Errorf("--changed: %w", err)
		}
		return nil, err
	}
	keep := make(map[string]bool, len(changed))
	for _, c := range changed {
		keep[c] = true
	}
	out := files[:0]
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		if keep[abs] {
			out = append(out, f)
		}
	}
	return out, nil
}

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout) && isTerminal(os.Stderr)
	}
}

type batchOutcome struct {
	result *driver.Result
	err    error
}

// runBatchWithUI runs the batch while a Bubble Tea program renders its
// progress events.
func runBatchWithUI(ctx context.Context, title string, fsys afero.Fs, files []string, cfg config.Config, opts driver.Options) (*driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.Progress = driver.FuncSink(func(ev driver.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		res, err := driver.Run(ctx, fsys, files, cfg, runOpts)
		outcomeCh <- batchOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		cancel()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
