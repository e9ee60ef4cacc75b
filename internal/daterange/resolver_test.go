package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wealthdesk/stmtparse/internal/model"
)

// All cases resolve against a frozen clock so relative periods and partial
// dates are deterministic.
var testNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantFrom time.Time
		wantTo   time.Time
		wantProv model.DateProvenance
	}{
		{
			name:     "as on with named month",
			text:     "portfolio statement as on 15-mar-2024 please",
			wantFrom: day(2024, time.March, 15),
			wantTo:   day(2024, time.March, 15),
			wantProv: model.ProvenanceExplicitSingle,
		},
		{
			name:     "as of variant",
			text:     "holdings as of 2024-03-31",
			wantFrom: day(2024, time.March, 31),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceExplicitSingle,
		},
		{
			name:     "explicit numeric range day first",
			text:     "transactions from 01/04/2023 to 31/03/2024",
			wantFrom: day(2023, time.April, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceExplicitRange,
		},
		{
			name:     "between and with ordinal suffixes",
			text:     "between 1st april 2023 and 31st march 2024",
			wantFrom: day(2023, time.April, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceExplicitRange,
		},
		{
			name:     "open ended from runs to processing date",
			text:     "everything from 01/01/2024 onwards",
			wantFrom: day(2024, time.January, 1),
			wantTo:   day(2024, time.June, 15),
			wantProv: model.ProvenanceExplicitRange,
		},
		{
			name:     "fiscal year short pair",
			text:     "capital gains for fy 23-24",
			wantFrom: day(2023, time.April, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceFiscalYear,
		},
		{
			name:     "fiscal year no space",
			text:     "fy23-24 capital gains",
			wantFrom: day(2023, time.April, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceFiscalYear,
		},
		{
			name:     "fiscal year full",
			text:     "statement for financial year 2024",
			wantFrom: day(2023, time.April, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceFiscalYear,
		},
		{
			name:     "this financial year",
			text:     "statement for this financial year",
			wantFrom: day(2024, time.April, 1),
			wantTo:   day(2025, time.March, 31),
			wantProv: model.ProvenanceFiscalYear,
		},
		{
			name:     "last financial year",
			text:     "need last fy numbers",
			wantFrom: day(2023, time.April, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceFiscalYear,
		},
		{
			name:     "last n months",
			text:     "statement for last 3 months",
			wantFrom: day(2024, time.March, 15),
			wantTo:   day(2024, time.June, 15),
			wantProv: model.ProvenanceRelative,
		},
		{
			name:     "last quarter",
			text:     "fee statement for last quarter",
			wantFrom: day(2024, time.January, 1),
			wantTo:   day(2024, time.March, 31),
			wantProv: model.ProvenanceRelative,
		},
		{
			name:     "last month",
			text:     "transactions for last month",
			wantFrom: day(2024, time.May, 1),
			wantTo:   day(2024, time.May, 31),
			wantProv: model.ProvenanceRelative,
		},
		{
			name:     "year to date",
			text:     "ytd performance please",
			wantFrom: day(2024, time.January, 1),
			wantTo:   day(2024, time.June, 15),
			wantProv: model.ProvenanceRelative,
		},
		{
			name:     "partial date resolved to current year",
			text:     "statement as on 15 march",
			wantFrom: day(2024, time.March, 15),
			wantTo:   day(2024, time.March, 15),
			wantProv: model.ProvenanceExplicitSingle,
		},
		{
			name:     "future partial date rolls back a year",
			text:     "statement as on 20 december",
			wantFrom: day(2023, time.December, 20),
			wantTo:   day(2023, time.December, 20),
			wantProv: model.ProvenanceExplicitSingle,
		},
		{
			name:     "two bare dates bound a range",
			text:     "statements covering 15/01/2024 plus 20/02/2024",
			wantFrom: day(2024, time.January, 15),
			wantTo:   day(2024, time.February, 20),
			wantProv: model.ProvenanceExplicitRange,
		},
		{
			name:     "single bare date is the cut-off",
			text:     "statement 15/03/2024",
			wantFrom: Epoch,
			wantTo:   day(2024, time.March, 15),
			wantProv: model.ProvenanceExplicitSingle,
		},
		{
			name:     "nothing parseable falls back to default",
			text:     "please send my statement",
			wantFrom: Epoch,
			wantTo:   day(2024, time.June, 14),
			wantProv: model.ProvenanceDefault,
		},
		{
			name:     "empty text falls back to default",
			text:     "",
			wantFrom: Epoch,
			wantTo:   day(2024, time.June, 14),
			wantProv: model.ProvenanceDefault,
		},
	}

	r := NewResolver(WithClock(func() time.Time { return testNow }))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(model.NormalizedText(tt.text))
			assert.Equal(t, tt.wantFrom, got.From, "from")
			assert.Equal(t, tt.wantTo, got.To, "to")
			assert.Equal(t, tt.wantProv, got.Provenance, "provenance")
		})
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	r := NewResolver(WithClock(func() time.Time { return testNow }))

	// "as on" outranks a fiscal-year mention elsewhere in the text.
	got := r.Resolve(model.NormalizedText("fy 23-24 ledger, balance as on 31/05/2024"))
	assert.Equal(t, model.ProvenanceExplicitSingle, got.Provenance)
	assert.Equal(t, day(2024, time.May, 31), got.To)

	// A from/to range outranks a relative period.
	got = r.Resolve(model.NormalizedText("last month plus from 01/01/2024 to 31/01/2024"))
	assert.Equal(t, model.ProvenanceExplicitRange, got.Provenance)
	assert.Equal(t, day(2024, time.January, 1), got.From)
}

func TestFindDatesRejectsInvalid(t *testing.T) {
	dates := findDates("meeting on 30/02/2024 or 15/13/2024", testNow)
	assert.Empty(t, dates)
}

func TestFindDatesDayFirstSwap(t *testing.T) {
	// 03/15/2024 only reads as month-first, so the reading swaps.
	dates := findDates("due 03/15/2024", testNow)
	if assert.Len(t, dates, 1) {
		assert.Equal(t, day(2024, time.March, 15), dates[0].date)
	}
}

func TestFullYear(t *testing.T) {
	tests := []struct {
		in     int
		want   int
		wantOK bool
	}{
		{24, 2024, true},
		{50, 2050, true},
		{51, 1951, false},
		{99, 1999, true},
		{2024, 2024, true},
		{1989, 1989, false},
		{2051, 2051, false},
	}
	for _, tt := range tests {
		got, ok := fullYear(tt.in)
		assert.Equal(t, tt.wantOK, ok, "year %d valid", tt.in)
		if ok {
			assert.Equal(t, tt.want, got, "year %d", tt.in)
		}
	}
}

func TestDefaultRange(t *testing.T) {
	dr := Default(testNow)
	assert.Equal(t, Epoch, dr.From)
	assert.Equal(t, testNow.AddDate(0, 0, -1), dr.To)
	assert.True(t, dr.IsDefault())
}
