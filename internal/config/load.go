package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	FileName      = "pytidy.toml"
	pyprojectName = "pyproject.toml"
)

var (
	// ErrInvalid wraps validation failures.
	ErrInvalid = errors.New("invalid configuration")
	// ErrNotFound is returned by Find when no configuration file exists up to the root.
	ErrNotFound = errors.New("no pytidy.toml or pyproject.toml with [tool.pytidy] found")
)

// Loader reads configuration files through an afero filesystem.
type Loader struct {
	Fs  afero.Fs
	Log logrus.FieldLogger
}

// NewLoader returns a loader over the OS filesystem.
func NewLoader(log logrus.FieldLogger) *Loader {
	return &Loader{Fs: afero.NewOsFs(), Log: log}
}

func (l *Loader) logger() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

// Find walks up from startDir looking for pytidy.toml, then for a
// pyproject.toml that has a [tool.pytidy] table.
func (l *Loader) Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if ok, err := afero.Exists(l.Fs, candidate); err != nil {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		} else if ok {
			return candidate, nil
		}
		pyproject := filepath.Join(dir, pyprojectName)
		if ok, _ := afero.Exists(l.Fs, pyproject); ok && l.hasToolTable(pyproject) {
			return pyproject, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotFound
}

func (l *Loader) hasToolTable(path string) bool {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return false
	}
	var raw map[string]any
	meta, err := toml.Decode(string(data), &raw)
	return err == nil && meta.IsDefined("tool", "pytidy")
}

// Load decodes the file at path on top of the defaults and validates it.
func (l *Loader) Load(path string) (Config, error) {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if filepath.Base(path) == pyprojectName {
		return l.decodePyproject(path, string(data))
	}
	return l.decode(path, string(data))
}

// Discover combines Find and Load. A missing file yields the defaults and an empty path.
func (l *Loader) Discover(startDir string) (Config, string, error) {
	path, err := l.Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), "", nil
	}
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := l.Load(path)
	return cfg, path, err
}

func (l *Loader) decode(path, text string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	l.reportUndecoded(path, meta.Undecoded(), "")
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (l *Loader) decodePyproject(path, text string) (Config, error) {
	var doc struct {
		Tool struct {
			Pytidy toml.Primitive `toml:"pytidy"`
		} `toml:"tool"`
	}
	meta, err := toml.Decode(text, &doc)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg := Default()
	if meta.IsDefined("tool", "pytidy") {
		if err := meta.PrimitiveDecode(doc.Tool.Pytidy, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: [tool.pytidy]: %w", path, err)
		}
	}
	l.reportUndecoded(path, meta.Undecoded(), "tool.pytidy.")
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (l *Loader) reportUndecoded(path string, keys []toml.Key, prefix string) {
	for _, k := range keys {
		name := k.String()
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		l.logger().WithFields(logrus.Fields{"file": path, "key": name}).Debug("ignoring unknown configuration key")
	}
}

// Load reads a configuration file from the OS filesystem.
func Load(path string) (Config, error) {
	return NewLoader(nil).Load(path)
}

// FromMap builds a configuration from a generic key/value map with the same
// rules as the file loader: unknown keys are ignored, missing keys take
// defaults, and the result is validated.
func FromMap(values map[string]any) (Config, error) {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(normalizeMap(values)); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	l := &Loader{Fs: afero.NewMemMapFs(), Log: logrus.StandardLogger()}
	return l.decode("<map>", buf.String())
}

// normalizeMap turns integral floats (as produced by JSON decoding) into
// integers so that they decode into int fields.
func normalizeMap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case float32:
		return normalizeValue(float64(n))
	case []any:
		out := make([]any, len(n))
		for i, x := range n {
			out[i] = normalizeValue(x)
		}
		return out
	case map[string]any:
		return normalizeMap(n)
	default:
		return v
	}
}

// WriteDefault writes a commented default configuration file.
func WriteDefault(fs afero.Fs, path string) error {
	if ok, _ := afero.Exists(fs, path); ok {
		return fmt.Errorf("%s: %w", path, os.ErrExist)
	}
	var buf strings.Builder
	buf.WriteString("# pytidy configuration; missing keys take these defaults\n")
	if err := toml.NewEncoder(&buf).Encode(Default()); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, []byte(buf.String()), 0o644)
}
