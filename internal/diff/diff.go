// Package diff aligns the original and the rewritten text of one unit line
// by line and summarizes the run in a Report.
package diff

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Op is the kind of one diff entry.
type Op uint8

const (
	Equal Op = iota
	Insert
	Delete
	Replace
)

var opNames = [...]string{
	Equal:   "equal",
	Insert:  "insert",
	Delete:  "delete",
	Replace: "replace",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

func (o Op) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Op) UnmarshalText(b []byte) error {
	for i, name := range opNames {
		if name == string(b) {
			*o = Op(i)
			return nil
		}
	}
	return fmt.Errorf("unknown diff op %q", b)
}

// Entry is one aligned block. Line ranges are 0-based and half-open; the
// texts keep their line endings.
type Entry struct {
	Op       Op     `json:"op" yaml:"op" msgpack:"op"`
	OldStart int    `json:"old_start" yaml:"old_start" msgpack:"old_start"`
	OldEnd   int    `json:"old_end" yaml:"old_end" msgpack:"old_end"`
	NewStart int    `json:"new_start" yaml:"new_start" msgpack:"new_start"`
	NewEnd   int    `json:"new_end" yaml:"new_end" msgpack:"new_end"`
	OldText  string `json:"old_text,omitempty" yaml:"old_text,omitempty" msgpack:"old_text"`
	NewText  string `json:"new_text,omitempty" yaml:"new_text,omitempty" msgpack:"new_text"`
}

// OldLines returns how many original lines the entry covers.
func (e Entry) OldLines() int { return e.OldEnd - e.OldStart }

// NewLines returns how many rewritten lines the entry covers.
func (e Entry) NewLines() int { return e.NewEnd - e.NewStart }

// ReplaceThreshold is the mean line similarity above which a changed block
// is reported as one replace instead of a delete followed by an insert.
const ReplaceThreshold = 0.5

// SplitLines splits s after every '\n'. The last element has no line
// ending when s does not end with one.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(s, "\n")+1)
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}

// Lines aligns two texts line by line.
func Lines(original, transformed string) []Entry {
	a, b := SplitLines(original), SplitLines(transformed)
	return build(a, b, script(a, b))
}

// Reconstruct concatenates the rewritten side of entries. For the output of
// Lines it returns the transformed text.
func Reconstruct(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.NewText)
	}
	return sb.String()
}

// ReconstructOld concatenates the original side of entries.
func ReconstructOld(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.OldText)
	}
	return sb.String()
}

// Similarity returns 1 minus the normalized edit distance of two lines,
// ignoring their line endings.
func Similarity(a, b string) float64 {
	a = strings.TrimRight(a, "\r\n")
	b = strings.TrimRight(b, "\r\n")
	n := max(len([]rune(a)), len([]rune(b)))
	if n == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(n)
}

// blockSimilarity pairs lines by position; lines without a partner count
// as completely different.
func blockSimilarity(before, after []string) float64 {
	n := max(len(before), len(after))
	if n == 0 {
		return 1
	}
	var sum float64
	for i := 0; i < min(len(before), len(after)); i++ {
		sum += Similarity(before[i], after[i])
	}
	return sum / float64(n)
}

type step uint8

const (
	keep step = iota
	del
	ins
)

// build groups the edit script into entries.
func build(a, b []string, ops []step) []Entry {
	var out []Entry
	i, j := 0, 0
	for k := 0; k < len(ops); {
		if ops[k] == keep {
			i0, j0 := i, j
			for k < len(ops) && ops[k] == keep {
				i++
				j++
				k++
			}
			out = append(out, Entry{
				Op:       Equal,
				OldStart: i0, OldEnd: i,
				NewStart: j0, NewEnd: j,
				OldText: strings.Join(a[i0:i], ""),
				NewText: strings.Join(b[j0:j], ""),
			})
			continue
		}
		i0, j0 := i, j
		for k < len(ops) && ops[k] != keep {
			if ops[k] == del {
				i++
			} else {
				j++
			}
			k++
		}
		out = append(out, hunk(a, b, i0, i, j0, j)...)
	}
	return out
}

func hunk(a, b []string, i0, i1, j0, j1 int) []Entry {
	before, after := a[i0:i1], b[j0:j1]
	if len(before) > 0 && len(after) > 0 && blockSimilarity(before, after) > ReplaceThreshold {
		return []Entry{{
			Op:       Replace,
			OldStart: i0, OldEnd: i1,
			NewStart: j0, NewEnd: j1,
			OldText: strings.Join(before, ""),
			NewText: strings.Join(after, ""),
		}}
	}
	var out []Entry
	if len(before) > 0 {
		out = append(out, Entry{
			Op:       Delete,
			OldStart: i0, OldEnd: i1,
			NewStart: j0, NewEnd: j0,
			OldText: strings.Join(before, ""),
		})
	}
	if len(after) > 0 {
		out = append(out, Entry{
			Op:       Insert,
			OldStart: i1, OldEnd: i1,
			NewStart: j0, NewEnd: j1,
			NewText: strings.Join(after, ""),
		})
	}
	return out
}

// script returns a shortest edit script turning a into b. Deletions come
// before insertions inside every changed block.
func script(a, b []string) []step {
	ids := make(map[string]int, len(a)+len(b))
	intern := func(lines []string) []int {
		out := make([]int, len(lines))
		for i, l := range lines {
			id, ok := ids[l]
			if !ok {
				id = len(ids)
				ids[l] = id
			}
			out[i] = id
		}
		return out
	}
	x, y := intern(a), intern(b)

	// общий префикс и суффикс не участвуют в поиске
	pre := 0
	for pre < len(x) && pre < len(y) && x[pre] == y[pre] {
		pre++
	}
	suf := 0
	for suf < len(x)-pre && suf < len(y)-pre && x[len(x)-1-suf] == y[len(y)-1-suf] {
		suf++
	}
	mid := myers(x[pre:len(x)-suf], y[pre:len(y)-suf])

	ops := make([]step, 0, pre+len(mid)+suf)
	for range pre {
		ops = append(ops, keep)
	}
	ops = append(ops, mid...)
	for range suf {
		ops = append(ops, keep)
	}
	return ops
}

// myers is the greedy O(ND) shortest edit script search.
func myers(a, b []int) []step {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		ops := make([]step, 0, n+m)
		for range n {
			ops = append(ops, del)
		}
		for range m {
			ops = append(ops, ins)
		}
		return ops
	}
	limit := n + m
	off := limit + 1
	v := make([]int, 2*limit+3)
	// trace[d] holds the furthest x per diagonal k in [-d, d] before round d
	var trace [][]int
	var d int
search:
	for d = 0; d <= limit; d++ {
		trace = append(trace, append([]int(nil), v[off-d:off+d+1]...))
		for k := -d; k <= d; k += 2 {
			var px int
			if k == -d || k != d && v[off+k-1] < v[off+k+1] {
				px = v[off+k+1]
			} else {
				px = v[off+k-1] + 1
			}
			py := px - k
			for px < n && py < m && a[px] == b[py] {
				px++
				py++
			}
			v[off+k] = px
			if px >= n && py >= m {
				break search
			}
		}
	}

	rev := make([]step, 0, n+m)
	px, py := n, m
	for ; d > 0; d-- {
		prev := trace[d]
		k := px - py
		var pk int
		if k == -d || k != d && prev[k-1+d] < prev[k+1+d] {
			pk = k + 1
		} else {
			pk = k - 1
		}
		sx := prev[pk+d]
		sy := sx - pk
		for px > sx && py > sy {
			rev = append(rev, keep)
			px--
			py--
		}
		if px == sx {
			rev = append(rev, ins)
			py--
		} else {
			rev = append(rev, del)
			px--
		}
		px, py = sx, sy
	}
	for px > 0 && py > 0 {
		rev = append(rev, keep)
		px--
		py--
	}

	ops := make([]step, len(rev))
	for i, s := range rev {
		ops[len(rev)-1-i] = s
	}
	return normalize(ops)
}

// normalize moves insertions after the deletions of the same changed block.
func normalize(ops []step) []step {
	for i := 0; i < len(ops); {
		if ops[i] == keep {
			i++
			continue
		}
		j := i
		dels := 0
		for j < len(ops) && ops[j] != keep {
			if ops[j] == del {
				dels++
			}
			j++
		}
		for k := i; k < j; k++ {
			if k-i < dels {
				ops[k] = del
			} else {
				ops[k] = ins
			}
		}
		i = j
	}
	return ops
}
