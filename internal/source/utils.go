package source

import (
	"path/filepath"
	"sort"
)

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- length checked by NewFile
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// число переводов строки строго перед off
	line := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1} // #nosec G115
}

func normalizePath(p string) string {
	if p == "" {
		return p
	}
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}
