package driver_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/driver"
)

func project(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/a.py":                  "import os\nimport sys\n\nprint(sys.argv)\n",
		"/proj/pkg/b.py":              "def do(a):\n    print(a*a)\n",
		"/proj/pkg/broken.py":         "def f(:\n",
		"/proj/pkg/notes.txt":         "not python\n",
		"/proj/.venv/lib.py":          "import os\n",
		"/proj/pkg/__pycache__/b.py":  "import os\n",
		"/proj/pkg/generated_pb2.py":  "import os\n",
		"/proj/tests/test_nothing.py": "\"\"\"Tests.\"\"\"\n",
	}
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	return fs
}

func TestListFiles(t *testing.T) {
	fs := project(t)
	files, err := driver.ListFiles(fs, []string{"/proj", "/proj/pkg/b.py"}, []string{"*_pb2.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/proj/a.py",
		"/proj/pkg/b.py",
		"/proj/pkg/broken.py",
		"/proj/tests/test_nothing.py",
	}, files)

	files, err = driver.ListFiles(fs, []string{"/proj/pkg/notes.txt"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/pkg/notes.txt"}, files, "explicit files are taken as is")

	_, err = driver.ListFiles(fs, []string{"/missing"}, nil)
	assert.Error(t, err)
}

func TestRunIsolatesFailures(t *testing.T) {
	fs := project(t)
	files, err := driver.ListFiles(fs, []string{"/proj"}, []string{"*_pb2.py"})
	require.NoError(t, err)

	var mu sync.Mutex
	statuses := map[string]driver.Status{}
	sink := driver.FuncSink(func(ev driver.Event) {
		if ev.File == "" {
			return
		}
		mu.Lock()
		statuses[ev.File] = ev.Status
		mu.Unlock()
	})

	res, err := driver.Run(context.Background(), fs, files, config.Default(), driver.Options{Jobs: 2, Progress: sink})
	require.NoError(t, err)
	require.Len(t, res.Files, len(files))
	assert.NotEmpty(t, res.RunID)

	for _, f := range res.Files {
		if filepath.Base(f.Path) == "broken.py" {
			require.NotNil(t, f.ParseError(), "syntax errors stay with their file")
			assert.Nil(t, f.Output)
			assert.Equal(t, driver.StatusError, statuses[f.Path])
			continue
		}
		require.NoError(t, f.Err, f.Path)
		require.NotNil(t, f.Output)
		assert.Equal(t, driver.StatusDone, statuses[f.Path])
	}

	a := res.Files[0]
	assert.Equal(t, "/proj/a.py", a.Path)
	assert.NotContains(t, a.Output.TransformedText, "import os")
	assert.Empty(t, a.Written)

	text, err := afero.ReadFile(fs, "/proj/a.py")
	require.NoError(t, err)
	assert.Equal(t, "import os\nimport sys\n\nprint(sys.argv)\n", string(text), "nothing is written without Write")

	sum := res.Summary()
	assert.Equal(t, 4, sum.Files)
	assert.Equal(t, 1, sum.Failed)
	assert.Positive(t, sum.Changed)
	assert.Equal(t, 1, sum.Actions["remove-unused-import"])
	var unused diag.Category
	for _, c := range sum.Counts {
		if c.Category == diag.UnusedImport {
			unused = c.Category
			assert.Equal(t, 1, c.Before)
			assert.Equal(t, 0, c.After)
		}
	}
	assert.Equal(t, diag.UnusedImport, unused)
	assert.Contains(t, sum.String(), "4 files")
}

func TestRunWritesAndCaches(t *testing.T) {
	fs := project(t)
	cache, err := driver.NewDiskCache(fs, "/cache")
	require.NoError(t, err)
	files := []string{"/proj/a.py", "/proj/pkg/b.py"}

	res, err := driver.Run(context.Background(), fs, files, config.Default(), driver.Options{
		OutDir: "/out",
		Base:   "/proj",
		Cache:  cache,
	})
	require.NoError(t, err)
	for _, f := range res.Files {
		require.NoError(t, f.Err)
		assert.False(t, f.Cached)
	}
	assert.Equal(t, "/out/pkg/b.py", res.Files[1].Written)
	written, err := afero.ReadFile(fs, "/out/pkg/b.py")
	require.NoError(t, err)
	assert.Equal(t, res.Files[1].Output.TransformedText, string(written))

	again, err := driver.Run(context.Background(), fs, files, config.Default(), driver.Options{Cache: cache, Write: true})
	require.NoError(t, err)
	for i, f := range again.Files {
		require.NoError(t, f.Err)
		assert.True(t, f.Cached, f.Path)
		assert.Equal(t, res.Files[i].Output.TransformedText, f.Output.TransformedText)
		assert.Equal(t, f.Path, f.Written)
	}
	inPlace, err := afero.ReadFile(fs, "/proj/a.py")
	require.NoError(t, err)
	assert.Equal(t, res.Files[0].Output.TransformedText, string(inPlace))
	assert.Equal(t, 2, again.Summary().Cached)
}

func TestRunCancelled(t *testing.T) {
	fs := project(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Run(ctx, fs, []string{"/proj/a.py"}, config.Default(), driver.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
