package driver_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/driver"
)

func write(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestChangedFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	write(t, filepath.Join(dir, "clean.py"), "x = 1\n")
	write(t, filepath.Join(dir, "edited.py"), "y = 1\n")
	write(t, filepath.Join(dir, "README.md"), "docs\n")
	for _, name := range []string{"clean.py", "edited.py", "README.md"} {
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	write(t, filepath.Join(dir, "edited.py"), "y = 2\n")
	write(t, filepath.Join(dir, "pkg", "new.py"), "z = 1\n")
	write(t, filepath.Join(dir, "README.md"), "more docs\n")

	files, err := driver.ChangedFiles(filepath.Join(dir, "pkg"))
	require.NoError(t, err)
	root, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	for i, f := range files {
		resolved, err := filepath.EvalSymlinks(f)
		require.NoError(t, err)
		files[i] = resolved
	}
	assert.Equal(t, []string{
		filepath.Join(root, "edited.py"),
		filepath.Join(root, "pkg", "new.py"),
	}, files)
}

func TestChangedFilesOutsideRepository(t *testing.T) {
	_, err := driver.ChangedFiles(t.TempDir())
	assert.ErrorIs(t, err, driver.ErrNotRepository)
}
