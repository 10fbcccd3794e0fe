package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// Patch writes a unified diff of one file that `patch -p1` can apply.
// Nothing is written when the texts are equal.
func Patch(w io.Writer, path, original, transformed string, contextLines int) error {
	if original == transformed {
		return nil
	}
	if contextLines <= 0 {
		contextLines = udiff.DefaultContextLines
	}
	name := strings.TrimPrefix(filepath.ToSlash(path), "/")
	if name == "" {
		name = "stdin.py"
	}
	edits := udiff.Strings(original, transformed)
	text, err := udiff.ToUnified("a/"+name, "b/"+name, original, edits, contextLines)
	if err != nil {
		return fmt.Errorf("unified diff of %s: %w", path, err)
	}
	_, err = io.WriteString(w, text)
	return err
}
