package diag

type dedupKey struct {
	cat    Category
	sev    Severity
	line   int
	column int
	msg    string
}

// DedupReporter wraps another Reporter and suppresses duplicate findings
// with the same category, severity, position and message.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique findings to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(f Finding) {
	if r == nil {
		return
	}
	key := dedupKey{cat: f.Category, sev: f.Severity, line: f.Line, column: f.Column, msg: f.Message}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(f)
	}
}
