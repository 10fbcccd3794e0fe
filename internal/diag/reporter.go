package diag

// Reporter: минимальный контракт получения находок от проверок.
// Реализации: BagReporter (кладёт в Bag) и DedupReporter.
type Reporter interface {
	Report(f Finding)
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(f Finding) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(f)
}
