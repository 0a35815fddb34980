package extract

import (
	"strings"
	"time"
)

// MonthTable maps lowercase month names and their three-letter
// abbreviations to month numbers. Build it with NewMonthTable; the zero
// value matches nothing.
type MonthTable struct {
	byName map[string]time.Month
}

// NewMonthTable returns the English month table ("january", "jan", ...).
func NewMonthTable() MonthTable {
	byName := make(map[string]time.Month, 24)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		byName[full] = m
		byName[full[:3]] = m
	}
	return MonthTable{byName: byName}
}

// Lookup resolves a month word. Full names and three-letter abbreviations
// match directly; longer abbreviations such as "sept" match when they are
// a prefix of the full name.
func (t MonthTable) Lookup(word string) (time.Month, bool) {
	w := strings.ToLower(word)
	if m, ok := t.byName[w]; ok {
		return m, true
	}
	if len(w) < 3 {
		return 0, false
	}
	m, ok := t.byName[w[:3]]
	if !ok {
		return 0, false
	}
	if !strings.HasPrefix(strings.ToLower(m.String()), w) {
		return 0, false
	}
	return m, true
}
