package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable() *PriceTable {
	table := NewPriceTable()
	table.AddSeries("AAA.KR", map[string]float64{
		"2025-01-02": 100,
		"2025-01-03": 110,
		"2025-01-06": 99,
	})
	table.AddSeries("BBB.KR", map[string]float64{
		"2025-01-03": 50,
		"2025-01-06": 55,
	})
	return table
}

func TestDatesAreSortedUnion(t *testing.T) {
	table := buildTable()

	assert.Equal(t, []string{"2025-01-02", "2025-01-03", "2025-01-06"}, table.Dates())
	assert.Equal(t, 3, table.Len())
	assert.False(t, table.IsEmpty())
	assert.Equal(t, []string{"AAA.KR", "BBB.KR"}, table.Symbols())
}

func TestPrice(t *testing.T) {
	table := buildTable()

	price, ok := table.Price("AAA.KR", "2025-01-03")
	require.True(t, ok)
	assert.Equal(t, 110.0, price)

	_, ok = table.Price("BBB.KR", "2025-01-02")
	assert.False(t, ok)

	_, ok = table.Price("MISSING", "2025-01-02")
	assert.False(t, ok)
}

func TestPctChange(t *testing.T) {
	table := buildTable()

	change, ok := table.PctChange("AAA.KR", "2025-01-03")
	require.True(t, ok)
	assert.InDelta(t, 0.10, change, 1e-12)

	// No prior price exists on the first date
	_, ok = table.PctChange("AAA.KR", "2025-01-02")
	assert.False(t, ok)

	// BBB has a gap on 01-02; its first priced day has no prior either
	_, ok = table.PctChange("BBB.KR", "2025-01-03")
	assert.False(t, ok)

	change, ok = table.PctChange("BBB.KR", "2025-01-06")
	require.True(t, ok)
	assert.InDelta(t, 0.10, change, 1e-12)
}

func TestPctChangeSkipsGapDays(t *testing.T) {
	table := NewPriceTable()
	table.AddSeries("AAA.KR", map[string]float64{
		"2025-01-02": 100,
		"2025-01-06": 120,
	})
	table.AddSeries("BBB.KR", map[string]float64{
		"2025-01-03": 1,
	})

	// AAA has no price on 01-03; its 01-06 change reaches back to 01-02
	change, ok := table.PctChange("AAA.KR", "2025-01-06")
	require.True(t, ok)
	assert.InDelta(t, 0.20, change, 1e-12)
}

func TestWindow(t *testing.T) {
	table := buildTable()

	window := table.Window(2)
	assert.Equal(t, []string{"2025-01-03", "2025-01-06"}, window.Dates())

	_, ok := window.Price("AAA.KR", "2025-01-02")
	assert.False(t, ok)

	// Oversized or non-positive windows return the table unchanged
	assert.Equal(t, table, table.Window(10))
	assert.Equal(t, table, table.Window(0))
}

func TestCloses(t *testing.T) {
	table := buildTable()

	assert.Equal(t, []float64{100, 110, 99}, table.Closes("AAA.KR"))
	assert.Equal(t, []float64{50, 55}, table.Closes("BBB.KR"))
	assert.Empty(t, table.Closes("MISSING"))
}
