package config

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/diag"
)

func memLoader(t *testing.T, files map[string]string) (*Loader, *test.Hook) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return &Loader{Fs: fs, Log: log}, hook
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.PassEnabled(PassFormat))
	assert.True(t, cfg.CheckEnabled(diag.UnusedImport))
	assert.True(t, cfg.AllowedShort("i"))
	assert.False(t, cfg.AllowedShort("q"))
	assert.True(t, cfg.MagicNumberWhitelist.Contains(-1))
	assert.False(t, cfg.MagicNumberWhitelist.Contains(2))
}

func TestFindWalksUp(t *testing.T) {
	l, _ := memLoader(t, map[string]string{
		"/proj/pytidy.toml":     "max_arguments = 7\n",
		"/proj/pkg/sub/mod.py":  "x = 1\n",
		"/other/pyproject.toml": "[project]\nname = 'x'\n",
	})
	path, err := l.Find("/proj/pkg/sub")
	require.NoError(t, err)
	assert.Equal(t, "/proj/pytidy.toml", path)

	_, err = l.Find("/other")
	assert.True(t, errors.Is(err, ErrNotFound))

	cfg, path, err := l.Discover("/other")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesDefaultsAndIgnoresUnknown(t *testing.T) {
	l, hook := memLoader(t, map[string]string{
		"/p/pytidy.toml": `max_function_length = 30
magic_number_whitelist = [0, 1, 2.5, "100"]
enabled_passes = ["imports", "format"]
surprise = true
`,
	})
	cfg, err := l.Load("/p/pytidy.toml")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.MaxFunctionLength)
	assert.Equal(t, 5, cfg.MaxArguments)
	assert.Equal(t, NumberSet{0, 1, 2.5, 100}, cfg.MagicNumberWhitelist)
	assert.True(t, cfg.PassEnabled(PassImports))
	assert.False(t, cfg.PassEnabled(PassNaming))

	var sawUnknown bool
	for _, e := range hook.AllEntries() {
		if e.Data["key"] == "surprise" {
			sawUnknown = true
		}
	}
	assert.True(t, sawUnknown, "unknown key must be logged")
}

func TestPyprojectTable(t *testing.T) {
	l, _ := memLoader(t, map[string]string{
		"/q/pyproject.toml": "[project]\nname = 'demo'\n\n[tool.pytidy]\nmax_line_length = 88\nlocal_packages = ['demo']\n",
	})
	path, err := l.Find("/q")
	require.NoError(t, err)
	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 88, cfg.MaxLineLength)
	assert.True(t, cfg.IsLocalPackage("demo.sub"))
	assert.False(t, cfg.IsLocalPackage("requests"))
}

func TestValidationErrors(t *testing.T) {
	tests := map[string]string{
		"bad_pass":    "enabled_passes = ['imports', 'teleport']\n",
		"bad_check":   "enabled_checks = ['unused-import', 'vibes']\n",
		"too_short":   "max_line_length = 3\n",
		"zero_window": "duplication_min_statements = 1\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			l, _ := memLoader(t, map[string]string{"/c/pytidy.toml": text})
			_, err := l.Load("/c/pytidy.toml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"max_arguments":          float64(3),
		"allowed_short_names":    []any{"n"},
		"magic_number_whitelist": []any{float64(0), float64(10)},
		"unknown_key":            "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxArguments)
	assert.Equal(t, []string{"n"}, cfg.AllowedShortNames)
	assert.True(t, cfg.MagicNumberWhitelist.Contains(10))
	assert.Equal(t, 100, cfg.MaxLineLength)

	_, err = FromMap(map[string]any{"max_function_length": 0})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteDefault(fs, "/w/pytidy.toml"))
	require.Error(t, WriteDefault(fs, "/w/pytidy.toml"))
	cfg, err := (&Loader{Fs: fs}).Load("/w/pytidy.toml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
