package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pytidy/internal/config"
)

var nonDescriptive = map[string]bool{
	"temp": true,
	"tmp":  true,
	"var":  true,
	"foo":  true,
	"bar":  true,
	"baz":  true,
}

// PoorName reports whether a variable or parameter name carries no meaning:
// a single character or a placeholder word, unless configured as allowed.
func PoorName(cfg config.Config, name string) bool {
	if cfg.AllowedShort(name) {
		return false
	}
	if utf8.RuneCountInString(name) == 1 {
		return true
	}
	return nonDescriptive[strings.ToLower(strings.Trim(name, "_"))]
}

// IsDunder reports names like __init__.
func IsDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// IsSnakeCase accepts lower_case names with optional leading underscores.
func IsSnakeCase(name string) bool {
	if IsDunder(name) {
		return true
	}
	body := strings.TrimLeft(name, "_")
	if body == "" {
		return true
	}
	for i, r := range body {
		switch {
		case unicode.IsLower(r), r == '_':
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// IsCapWords accepts CapWords class names with an optional leading underscore.
func IsCapWords(name string) bool {
	body := strings.TrimLeft(name, "_")
	if body == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(body)
	if !unicode.IsUpper(r) {
		return false
	}
	return !strings.Contains(body, "_")
}

// SnakeCase converts camelCase, CapWords or mixed names to snake_case,
// keeping leading underscores.
func SnakeCase(name string) string {
	lead := len(name) - len(strings.TrimLeft(name, "_"))
	body := name[lead:]
	var b strings.Builder
	b.WriteString(name[:lead])
	runes := []rune(body)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if (prevLower || nextLower) && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CapWords converts snake_case or camelCase names to CapWords, keeping a
// leading underscore.
func CapWords(name string) string {
	lead := len(name) - len(strings.TrimLeft(name, "_"))
	var b strings.Builder
	b.WriteString(name[:lead])
	for _, part := range strings.Split(name[lead:], "_") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}
