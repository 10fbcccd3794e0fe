package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pytidy/internal/config"
	"pytidy/internal/diagfmt"
	"pytidy/internal/driver"
	"pytidy/internal/engine"
	"pytidy/internal/parser"
	"pytidy/internal/source"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [directory|file.py]...",
	Short: "Re-analyze files as they change",
	Long: `Watch analyzes the given files once, then keeps running and reports the
findings of every Python file that is written or created. Unchanged content is
served from memory. Stop with Ctrl-C.`,
	RunE: runWatch,
}

const watchDebounce = 150 * time.Millisecond

func init() {
	watchCmd.Flags().Bool("with-notes", false, "include finding notes in output")
	watchCmd.Flags().Bool("refactor", false, "also show the refactor report of every changed file")
	watchCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
}

type watcher struct {
	fsys    afero.Fs
	cfg     config.Config
	cfgKey  driver.Digest
	memo    *driver.MemoCache
	analyze bool
	exclude []string
	out     io.Writer
	opts    diagfmt.PrettyOpts
	log     logrus.FieldLogger
	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

func runWatch(cmd *cobra.Command, args []string) error {
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	refactor, err := cmd.Flags().GetBool("refactor")
	if err != nil {
		return fmt.Errorf("failed to get refactor flag: %w", err)
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return fmt.Errorf("failed to get exclude flag: %w", err)
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	opts := prettyOpts(cmd, false)
	opts.ShowNotes = withNotes

	w := &watcher{
		fsys:    afero.NewOsFs(),
		cfg:     cfg,
		cfgKey:  driver.ConfigDigest(cfg, !refactor),
		memo:    driver.NewMemoCache(64),
		analyze: !refactor,
		exclude: exclude,
		out:     os.Stdout,
		opts:    opts,
		log:     cliLog.WithField("cmd", "watch"),
		pending: make(map[string]bool),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.run(ctx, args)
}

func (w *watcher) run(ctx context.Context, roots []string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range roots {
		if err := w.addTree(fw, root); err != nil {
			return err
		}
	}

	files, err := driver.ListFiles(w.fsys, roots, w.exclude)
	if err != nil {
		return err
	}
	for _, f := range files {
		w.check(f)
	}
	fmt.Fprintf(os.Stderr, "watching %d files (Ctrl-C to stop)\n", len(files))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("[watch] watcher error")
		}
	}
}

// addTree watches root and every directory below it that a batch run would
// search.
func (w *watcher) addTree(fw *fsnotify.Watcher, root string) error {
	info, err := w.fsys.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fw.Add(filepath.Dir(root))
	}
	return afero.Walk(w.fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && driver.SkipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.memo.Forget(ev.Name)
		return
	case ev.Op&fsnotify.Create != 0:
		if info, err := w.fsys.Stat(ev.Name); err == nil && info.IsDir() {
			if !driver.SkipDir(info.Name()) {
				if err := w.addTree(fw, ev.Name); err != nil {
					w.log.WithError(err).Warn("[watch] cannot watch new directory")
				}
			}
			return
		}
	case ev.Op&fsnotify.Write == 0:
		return
	}
	if !strings.HasSuffix(ev.Name, driver.SourceExt) || driver.Excluded(ev.Name, w.exclude) {
		return
	}
	w.schedule(ev.Name)
}

// schedule queues path; bursts of events inside the debounce window are
// handled once.
func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.flush)
}

func (w *watcher) stopTimer() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(paths)
	for _, p := range paths {
		w.check(p)
	}
}

// check analyzes one file and prints its findings, unless its content is
// the same as the last time.
func (w *watcher) check(path string) {
	data, err := afero.ReadFile(w.fsys, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.WithError(err).WithField("file", path).Warn("[watch] read failed")
		}
		w.memo.Forget(path)
		return
	}
	key := driver.ResultKey(data, w.cfgKey)
	if _, ok := w.memo.Get(path, key); ok {
		w.log.WithField("file", path).Debug("[watch] content unchanged")
		return
	}

	opts := []engine.Option{engine.WithPath(path), engine.WithLogger(w.log)}
	if w.analyze {
		opts = append(opts, engine.AnalyzeOnly())
	}
	out, err := engine.Run(string(data), w.cfg, opts...)
	w.memo.Put(path, key, driver.Memo{Out: out, Err: err})

	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "[%s] %s\n", time.Now().Format("15:04:05"), path)
	if err != nil {
		var pe *parser.Error
		if errors.As(err, &pe) {
			diagfmt.PrettySyntaxError(w.out, path, source.NewFile(path, data), pe, w.opts)
		} else {
			fmt.Fprintf(w.out, "%s: %v\n", path, err)
		}
		return
	}
	if len(out.FindingsBefore) == 0 {
		fmt.Fprintln(w.out, "no findings")
	} else {
		diagfmt.Pretty(w.out, path, out.Original.File, out.FindingsBefore, w.opts)
	}
	if !w.analyze && out.Changed() {
		diagfmt.PrettyReport(w.out, out.Report, w.opts)
	}
}
