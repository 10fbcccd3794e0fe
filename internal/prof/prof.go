// Package prof collects pprof profiles and runtime traces of one CLI run.
package prof

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spf13/afero"
)

// Options name the output files; an empty path disables that profile.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.Trace != ""
}

// Session owns the open profile files. Stop is safe to call more than once.
type Session struct {
	fs        afero.Fs
	opts      Options
	cpuFile   afero.File
	traceFile afero.File
	stopped   bool
}

// Start opens the requested files and starts the CPU profile and the trace.
// The heap profile is written by Stop.
func Start(fs afero.Fs, opts Options) (*Session, error) {
	s := &Session{fs: fs, opts: opts}
	if opts.CPU != "" {
		f, err := fs.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := fs.Create(opts.Trace)
		if err == nil {
			if err = trace.Start(f); err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			// CPU-профиль уже идёт, его надо закрыть
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends the trace and the CPU profile and writes the heap profile.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true
	var errs []error
	if s.traceFile != nil {
		trace.Stop()
		errs = append(errs, s.traceFile.Close())
		s.traceFile = nil
	}
	errs = append(errs, s.stopCPU())
	if s.opts.Mem != "" {
		errs = append(errs, s.writeHeap())
	}
	return errors.Join(errs...)
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func (s *Session) writeHeap() (err error) {
	f, err := s.fs.Create(s.opts.Mem)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteHeap(f)
}

// WriteHeap writes a heap profile after a forced collection.
func WriteHeap(w io.Writer) error {
	runtime.GC()
	if err := pprof.WriteHeapProfile(w); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
