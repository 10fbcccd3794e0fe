package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"pytidy/internal/config"
	"pytidy/internal/engine"
	"pytidy/internal/parser"
)

// Options configure a batch run.
type Options struct {
	// Jobs bounds the number of files processed at once; 0 means GOMAXPROCS.
	Jobs int
	// AnalyzeOnly skips the refactor.
	AnalyzeOnly bool
	// Write replaces every changed file with its rewritten text.
	Write bool
	// OutDir, when set, receives the rewritten files instead; paths are
	// kept relative to Base.
	OutDir string
	// Base is the directory relative paths are computed from.
	Base string
	// Cache, if set, serves and stores results by content and config.
	Cache    *DiskCache
	Progress ProgressSink
	Log      logrus.FieldLogger
}

// FileResult is the outcome of one file. Exactly one of Output and Err is
// set.
type FileResult struct {
	Path    string
	Output  *engine.Output
	Err     error
	Cached  bool
	Written string
}

// ParseError returns the syntax error of the file, if that is why it failed.
func (r FileResult) ParseError() *parser.Error {
	var pe *parser.Error
	if errors.As(r.Err, &pe) {
		return pe
	}
	return nil
}

// Result is one batch run. Files are in input order.
type Result struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Files    []FileResult
}

// Run processes files in parallel. Per-file problems (unreadable file,
// syntax error, failed write) are recorded in the file's result and never
// stop the others; the returned error is only the context's.
func Run(ctx context.Context, fsys afero.Fs, files []string, cfg config.Config, opts Options) (*Result, error) {
	res := &Result{
		RunID:   uuid.New().String(),
		Started: time.Now(),
		Files:   make([]FileResult, len(files)),
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("run", res.RunID)
	if len(files) == 0 {
		return res, nil
	}

	for _, file := range files {
		emit(opts.Progress, Event{File: file, Stage: StageRead, Status: StatusQueued})
	}

	// Настраиваем параллелизм
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	cfgKey := ConfigDigest(cfg, opts.AnalyzeOnly)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// индекс i уникален для горутины, мьютекс не нужен
			res.Files[i] = processFile(fsys, path, cfg, cfgKey, opts, log)
			return nil
		})
	}

	// Ждём завершения всех горутин
	err := g.Wait()
	res.Duration = time.Since(res.Started)
	emit(opts.Progress, Event{Stage: StageDiff, Status: StatusDone, Elapsed: res.Duration})
	if err != nil {
		return res, err
	}
	log.WithFields(logrus.Fields{"files": len(files), "jobs": jobs}).Debugf("[batch] finished in %s", res.Duration)
	return res, nil
}

func processFile(fsys afero.Fs, path string, cfg config.Config, cfgKey Digest, opts Options, log logrus.FieldLogger) FileResult {
	start := time.Now()
	fr := FileResult{Path: path}
	log = log.WithField("file", path)
	fail := func(stage Stage, err error) FileResult {
		fr.Err = err
		emit(opts.Progress, Event{File: path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return fr
	}

	emit(opts.Progress, Event{File: path, Stage: StageRead, Status: StatusWorking})
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		log.WithError(err).Warn("[batch] cannot read file")
		return fail(StageRead, fmt.Errorf("read %s: %w", path, err))
	}

	key := ResultKey(content, cfgKey)
	if out, ok, err := opts.Cache.Get(key); err != nil {
		log.WithError(err).Debug("[batch] cache entry unreadable, recomputing")
	} else if ok {
		out.Path = path
		fr.Output, fr.Cached = out, true
	}

	if fr.Output == nil {
		engineOpts := []engine.Option{
			engine.WithPath(path),
			engine.WithLogger(log),
			engine.WithPhaseObserver(phaseObserver(opts.Progress, path)),
		}
		if opts.AnalyzeOnly {
			engineOpts = append(engineOpts, engine.AnalyzeOnly())
		}
		out, err := engine.Run(string(content), cfg, engineOpts...)
		if err != nil {
			log.WithError(err).Info("[batch] syntax error")
			return fail(StageParse, fmt.Errorf("%s: %w", path, err))
		}
		fr.Output = out
		if err := opts.Cache.Put(key, out); err != nil {
			log.WithError(err).Warn("[batch] cannot store cache entry")
		}
	}

	if !opts.AnalyzeOnly && fr.Output.Changed() && (opts.Write || opts.OutDir != "") {
		emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusWorking})
		target, err := writeTarget(fsys, path, opts)
		if err == nil {
			err = writeFile(fsys, target, fr.Output.TransformedText)
		}
		if err != nil {
			log.WithError(err).Warn("[batch] cannot write result")
			return fail(StageWrite, fmt.Errorf("write %s: %w", path, err))
		}
		fr.Written = target
	}

	status := StatusDone
	if fr.Cached {
		status = StatusCached
	}
	emit(opts.Progress, Event{File: path, Stage: StageDiff, Status: status, Elapsed: time.Since(start)})
	return fr
}

func writeTarget(fsys afero.Fs, path string, opts Options) (string, error) {
	if opts.OutDir == "" {
		return path, nil
	}
	rel := path
	if opts.Base != "" {
		r, err := filepath.Rel(opts.Base, path)
		if err != nil {
			return "", err
		}
		rel = r
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}
	target := filepath.Join(opts.OutDir, rel)
	if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	return target, nil
}

// writeFile replaces path atomically, keeping its permissions.
func writeFile(fsys afero.Fs, path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := fsys.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	f, err := afero.TempFile(fsys, filepath.Dir(path), ".pytidy-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	if err := fsys.Chmod(tmp, mode); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	return fsys.Rename(tmp, path)
}
