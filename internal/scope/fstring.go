package scope

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pytidy/internal/token"
)

// FStringNames returns the identifiers mentioned inside the replacement
// fields of an f-string literal, in order of appearance. The scan is
// approximate: attribute names and keywords are dropped, everything else
// that looks like an identifier is reported.
func FStringNames(lit string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(lit); i++ {
		switch lit[i] {
		case '{':
			if depth == 0 && i+1 < len(lit) && lit[i+1] == '{' {
				i++
				continue
			}
			if depth == 0 {
				start = i + 1
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = appendIdents(out, lit[start:i])
			}
		}
	}
	return out
}

// AnnotationNames returns the identifiers a string annotation such as
// 'typing.List[Item]' may refer to. Bytes literals mention nothing.
func AnnotationNames(lit string) []string {
	body := LiteralBody(lit)
	prefix := lit[:len(lit)-len(strings.TrimLeft(lit, "rRbBuUfF"))]
	if strings.ContainsAny(prefix, "bB") || len(body) == len(lit) {
		return nil
	}
	return appendIdents(nil, body)
}

func appendIdents(out []string, field string) []string {
	var quote byte
	prev := rune(0)
	for i := 0; i < len(field); {
		c := field[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			prev = rune(c)
			i++
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			prev = rune(c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(field[i:])
		if !isIdentStart(r) {
			prev = r
			i += size
			continue
		}
		j := i + size
		for j < len(field) {
			r2, s2 := utf8.DecodeRuneInString(field[j:])
			if !isIdentStart(r2) && !unicode.IsDigit(r2) {
				break
			}
			j += s2
		}
		word := field[i:j]
		_, keyword := token.LookupKeyword(word)
		if prev != '.' && prev != '!' && !unicode.IsDigit(prev) && !keyword && !isStringPrefix(field, j) {
			out = append(out, word)
		}
		prev = 'a'
		i = j
	}
	return out
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isStringPrefix reports whether the identifier ending at j prefixes a quote, as in rb"x".
func isStringPrefix(field string, j int) bool {
	return j < len(field) && (field[j] == '\'' || field[j] == '"')
}

// LiteralBody strips the prefix and quotes from a single string literal.
// Escape sequences are left untouched.
func LiteralBody(lit string) string {
	s := strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
