package diag

import "pytidy/internal/source"

// New builds a finding positioned at the start of span inside file.
func New(file *source.File, cat Category, sev Severity, span source.Span, msg string) Finding {
	f := Finding{Category: cat, Severity: sev, Span: span, Message: msg}
	if file != nil {
		start, end := file.Resolve(span)
		f.Line, f.Column = int(start.Line), int(start.Col)
		if end.Line > start.Line {
			f.EndLine = int(end.Line)
		}
	}
	return f
}

// NewWarning is a shortcut for SevWarning findings.
func NewWarning(file *source.File, cat Category, span source.Span, msg string) Finding {
	return New(file, cat, SevWarning, span, msg)
}

// NewInfo is a shortcut for SevInfo findings.
func NewInfo(file *source.File, cat Category, span source.Span, msg string) Finding {
	return New(file, cat, SevInfo, span, msg)
}

// AtLine builds a finding tied to a whole line (Column 0).
func AtLine(cat Category, sev Severity, line int, msg string) Finding {
	return Finding{Category: cat, Severity: sev, Line: line, Message: msg}
}

func (f Finding) WithSymbol(name string) Finding {
	f.Symbol = name
	return f
}

func (f Finding) WithNote(file *source.File, sp source.Span, msg string) Finding {
	n := Note{Span: sp, Msg: msg}
	if file != nil {
		n.Line = int(file.Position(sp.Start).Line)
	}
	f.Notes = append(f.Notes, n)
	return f
}
