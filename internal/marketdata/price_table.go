package marketdata

import "sort"

// PriceTable is an immutable, date-indexed, per-symbol price table
// covering a simulation window. Build one with NewPriceTable and
// AddSeries, then treat it as read-only.
type PriceTable struct {
	dates     []string
	dateIndex map[string]int
	prices    map[string]map[string]float64 // symbol -> date -> close
}

// NewPriceTable creates an empty price table.
func NewPriceTable() *PriceTable {
	return &PriceTable{
		dateIndex: make(map[string]int),
		prices:    make(map[string]map[string]float64),
	}
}

// AddSeries merges a symbol's date->close series into the table.
// Dates are kept as the sorted union across all symbols.
func (t *PriceTable) AddSeries(symbol string, series map[string]float64) {
	if len(series) == 0 {
		return
	}

	existing, ok := t.prices[symbol]
	if !ok {
		existing = make(map[string]float64, len(series))
		t.prices[symbol] = existing
	}

	changed := false
	for date, price := range series {
		existing[date] = price
		if _, known := t.dateIndex[date]; !known {
			t.dates = append(t.dates, date)
			changed = true
		}
	}

	if changed {
		sort.Strings(t.dates)
		for i, d := range t.dates {
			t.dateIndex[d] = i
		}
	}
}

// Dates returns all dates in ascending order.
func (t *PriceTable) Dates() []string {
	return t.dates
}

// Len returns the number of dates in the table.
func (t *PriceTable) Len() int {
	return len(t.dates)
}

// IsEmpty reports whether the table has no data at all.
func (t *PriceTable) IsEmpty() bool {
	return len(t.dates) == 0
}

// Symbols returns the table's symbols in deterministic order.
func (t *PriceTable) Symbols() []string {
	symbols := make([]string, 0, len(t.prices))
	for s := range t.prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// HasSymbol reports whether any prices exist for the symbol.
func (t *PriceTable) HasSymbol(symbol string) bool {
	return len(t.prices[symbol]) > 0
}

// Price returns the close price for a symbol on a date.
func (t *PriceTable) Price(symbol, date string) (float64, bool) {
	series, ok := t.prices[symbol]
	if !ok {
		return 0, false
	}
	price, ok := series[date]
	return price, ok
}

// PctChange returns the symbol's return on the given date relative to
// its most recent prior price in the table. False when the symbol has no
// price on the date or no prior price to compare against.
func (t *PriceTable) PctChange(symbol, date string) (float64, bool) {
	idx, ok := t.dateIndex[date]
	if !ok {
		return 0, false
	}

	current, ok := t.Price(symbol, date)
	if !ok {
		return 0, false
	}

	for i := idx - 1; i >= 0; i-- {
		if prev, ok := t.Price(symbol, t.dates[i]); ok && prev != 0 {
			return (current - prev) / prev, true
		}
	}
	return 0, false
}

// Window returns a new table restricted to the last n dates.
// A non-positive n returns the table unchanged.
func (t *PriceTable) Window(n int) *PriceTable {
	if n <= 0 || n >= len(t.dates) {
		return t
	}

	keep := t.dates[len(t.dates)-n:]
	window := NewPriceTable()
	for symbol, series := range t.prices {
		sub := make(map[string]float64)
		for _, date := range keep {
			if price, ok := series[date]; ok {
				sub[date] = price
			}
		}
		window.AddSeries(symbol, sub)
	}
	return window
}

// Closes returns the symbol's prices in date order, skipping gap days.
func (t *PriceTable) Closes(symbol string) []float64 {
	var closes []float64
	for _, date := range t.dates {
		if price, ok := t.Price(symbol, date); ok {
			closes = append(closes, price)
		}
	}
	return closes
}
