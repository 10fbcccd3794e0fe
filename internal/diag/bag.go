package diag

import (
	"sort"
)

// Bag collects findings up to a limit. A zero max means unlimited.
type Bag struct {
	items   []Finding
	max     int
	dropped int
}

func NewBag(max int) *Bag {
	capHint := max
	if capHint <= 0 || capHint > 256 {
		capHint = 16
	}
	return &Bag{items: make([]Finding, 0, capHint), max: max}
}

// Add добавляет находку, учитывая лимит.
// Возвращает false, если находка не добавлена (достигнут лимит).
func (b *Bag) Add(f Finding) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, f)
	return true
}

// Dropped returns how many findings were rejected by the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice находок.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Finding {
	return b.items
}

// Sort упорядочивает находки по строке, колонке и имени категории,
// что даёт детерминированный вывод.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		return Less(b.items[i], b.items[j])
	})
}

// CountByCategory returns the number of findings per category.
func CountByCategory(findings []Finding) map[Category]int {
	out := make(map[Category]int)
	for _, f := range findings {
		out[f.Category]++
	}
	return out
}
