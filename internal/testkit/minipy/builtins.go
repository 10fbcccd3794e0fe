package minipy

import (
	"fmt"
	"strconv"
	"strings"
)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"print": func(in *interp, args []any) (any, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = str(a)
			}
			in.out.WriteString(strings.Join(parts, " "))
			in.out.WriteByte('\n')
			return nil, nil
		},
		"len": func(_ *interp, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("len() takes exactly one argument (%d given)", len(args))
			}
			switch x := args[0].(type) {
			case string:
				return int64(len([]rune(x))), nil
			case *List:
				return int64(len(x.Items)), nil
			case *Dict:
				return int64(len(x.keys)), nil
			}
			return nil, fmt.Errorf("object of type '%s' has no len()", typeName(args[0]))
		},
		"range": func(in *interp, args []any) (any, error) {
			var lo, hi, step int64 = 0, 0, 1
			nums := make([]int64, len(args))
			for i, a := range args {
				v, ok := asInt(a)
				if !ok {
					return nil, fmt.Errorf("'%s' object cannot be interpreted as an integer", typeName(a))
				}
				nums[i] = v
			}
			switch len(nums) {
			case 1:
				hi = nums[0]
			case 2:
				lo, hi = nums[0], nums[1]
			case 3:
				lo, hi, step = nums[0], nums[1], nums[2]
			default:
				return nil, fmt.Errorf("range expected 1 to 3 arguments, got %d", len(nums))
			}
			if step == 0 {
				return nil, fmt.Errorf("range() arg 3 must not be zero")
			}
			out := &List{}
			for v := lo; step > 0 && v < hi || step < 0 && v > hi; v += step {
				if err := in.step(); err != nil {
					return nil, err
				}
				out.Items = append(out.Items, v)
			}
			return out, nil
		},
		"str": func(_ *interp, args []any) (any, error) {
			if len(args) == 0 {
				return "", nil
			}
			return str(args[0]), nil
		},
		"repr": func(_ *interp, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("repr() takes exactly one argument (%d given)", len(args))
			}
			return repr(args[0]), nil
		},
		"abs": func(_ *interp, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("abs() takes exactly one argument (%d given)", len(args))
			}
			v, ok := asInt(args[0])
			if !ok {
				return nil, fmt.Errorf("bad operand type for abs(): '%s'", typeName(args[0]))
			}
			if v < 0 {
				v = -v
			}
			return v, nil
		},
	}
}

// str renders a value the way print does.
func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

func repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return quote(x)
	case *List:
		parts := make([]string, len(x.Items))
		for i, it := range x.Items {
			parts[i] = repr(it)
		}
		if x.Tuple {
			if len(parts) == 1 {
				return "(" + parts[0] + ",)"
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Dict:
		parts := make([]string, len(x.keys))
		for i, key := range x.keys {
			k, _ := dictKey(key)
			parts[i] = repr(key) + ": " + repr(x.m[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *function:
		return "<function " + x.name + ">"
	case builtin:
		return "<built-in function>"
	}
	return fmt.Sprint(v)
}

// quote follows Python's choice of quote character.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// decodeStrings decodes one or more adjacent plain string literals.
func decodeStrings(text string) (string, bool) {
	var out strings.Builder
	i := 0
	for {
		for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r' || text[i] == '\\') {
			i++
		}
		if i >= len(text) {
			return out.String(), true
		}
		raw := false
		for i < len(text) && text[i] != '\'' && text[i] != '"' {
			switch text[i] {
			case 'r', 'R':
				raw = true
			case 'u', 'U':
			default:
				return "", false
			}
			i++
		}
		if i >= len(text) {
			return "", false
		}
		q := text[i : i+1]
		if strings.HasPrefix(text[i:], q+q+q) {
			q = q + q + q
		}
		i += len(q)
		end := i
		for {
			if end >= len(text) {
				return "", false
			}
			if strings.HasPrefix(text[end:], q) {
				break
			}
			if text[end] == '\\' {
				end++
			}
			end++
		}
		body := text[i:end]
		i = end + len(q)
		if raw {
			out.WriteString(body)
			continue
		}
		s, ok := unescape(body)
		if !ok {
			return "", false
		}
		out.WriteString(s)
	}
}

func unescape(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		case '\n':
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), true
}
