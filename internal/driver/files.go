package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/afero"
)

// SourceExt is the extension of the files a batch run picks up.
const SourceExt = ".py"

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"venv":          true,
	"site-packages": true,
}

// ErrNotRepository is returned by ChangedFiles outside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// ListFiles returns every source file under roots in sorted order. A root
// may be a file (taken as is, whatever its extension) or a directory.
// Hidden directories are skipped; exclude holds filepath.Match patterns
// tested against the base name and the slash-separated path.
func ListFiles(fsys afero.Fs, roots []string, exclude []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range roots {
		info, err := fsys.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && SkipDir(info.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, SourceExt) || Excluded(path, exclude) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// SkipDir reports whether a directory is never searched for sources:
// hidden directories, caches and virtual environments.
func SkipDir(name string) bool {
	return skippedDirs[name] || strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Excluded reports whether path matches one of the exclude patterns.
func Excluded(path string, patterns []string) bool {
	slash := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, slash); ok {
			return true
		}
	}
	return false
}

// ChangedFiles returns the source files of the git work tree containing dir
// that are modified, added or untracked. Paths are absolute and sorted.
func ChangedFiles(dir string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	root := wt.Filesystem.Root()

	var files []string
	for path, st := range status {
		if !strings.HasSuffix(path, SourceExt) {
			continue
		}
		if st.Worktree == git.Deleted || st.Staging == git.Deleted && st.Worktree != git.Untracked {
			continue
		}
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(path)))
	}
	sort.Strings(files)
	return files, nil
}
