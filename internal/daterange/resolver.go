// Package daterange resolves a from/to date interval from the varied
// natural-language date expressions found in statement-request emails.
package daterange

import (
	"regexp"
	"strconv"
	"time"

	"github.com/wealthdesk/stmtparse/internal/model"
)

// Epoch is the default start of history when no date expression is found.
var Epoch = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// Resolver scans normalized text for date expressions in priority order:
// "as on" single dates, explicit from/to ranges, fiscal years, relative
// periods, bare date literals, then the default range. It never fails.
type Resolver struct {
	now func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock fixes the processing-time reference, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver using the wall clock unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	asOnRe    = regexp.MustCompile(`\bas\s+(?:on|of|at)\b`)
	fromRe    = regexp.MustCompile(`\bfrom\b|\bbetween\b`)
	toRe      = regexp.MustCompile(`\bto\b|\btill\b|\buntil\b|\bupto\b|\bthrough\b|\band\b`)
	fyRe      = regexp.MustCompile(`\b(?:fy|financial\s+year)\s*[\s\-]?(\d{2,4})(?:\s*[-/]\s*(\d{2,4}))?\b`)
	thisFYRe  = regexp.MustCompile(`\b(?:current|this)\s+(?:fy|financial\s+year)\b`)
	lastFYRe  = regexp.MustCompile(`\b(?:last|previous)\s+(?:fy|financial\s+year)\b`)
	nextFYRe  = regexp.MustCompile(`\bnext\s+(?:fy|financial\s+year)\b`)
	lastNRe   = regexp.MustCompile(`\blast\s+(\d+)\s+(day|days|month|months|year|years)\b`)
	lastPerRe = regexp.MustCompile(`\b(?:last|previous)\s+(year|month|quarter)\b`)
	thisPerRe = regexp.MustCompile(`\b(?:current|this)\s+(year|month|quarter)\b`)
	ytdRe     = regexp.MustCompile(`\bytd\b|\byear\s+to\s+date\b`)
	mtdRe     = regexp.MustCompile(`\bmtd\b|\bmonth\s+to\s+date\b`)
	qtdRe     = regexp.MustCompile(`\bqtd\b|\bquarter\s+to\s+date\b`)
	ydayRe    = regexp.MustCompile(`\byesterday\b`)
	todayRe   = regexp.MustCompile(`\btoday\b`)
)

// dateMarkerSpan bounds how far after an "as on"/"from"/"to" marker a date
// literal may sit and still be considered attached to it.
const dateMarkerSpan = 24

// Resolve finds the date range requested by the text. Unparseable fragments
// are ignored; the default range applies only when nothing parses at all.
func (r *Resolver) Resolve(text model.NormalizedText) model.DateRange {
	now := r.today()
	s := text.String()
	dates := findDates(s, now)

	// (a) "as on <date>" collapses to a single-day range.
	if loc := asOnRe.FindStringIndex(s); loc != nil {
		if d, ok := firstDateAfter(dates, loc[1], dateMarkerSpan); ok {
			return model.NewDateRange(d.date, d.date, model.ProvenanceExplicitSingle)
		}
	}

	// (b) explicit "from <date> to <date>" ranges.
	if loc := fromRe.FindStringIndex(s); loc != nil {
		if from, ok := firstDateAfter(dates, loc[1], dateMarkerSpan); ok {
			rest := s[from.end:]
			if toLoc := toRe.FindStringIndex(rest); toLoc != nil {
				if to, ok := firstDateAfter(dates, from.end+toLoc[1], dateMarkerSpan); ok {
					return model.NewDateRange(from.date, to.date, model.ProvenanceExplicitRange)
				}
			}
			// Open-ended "from <date>" runs up to the processing date.
			return model.NewDateRange(from.date, now, model.ProvenanceExplicitRange)
		}
	}

	// (c) fiscal-year expressions.
	if dr, ok := r.fiscal(s, now); ok {
		return dr
	}

	// (d) relative expressions.
	if dr, ok := r.relative(s, now); ok {
		return dr
	}

	// Bare date literals with no surrounding marker still carry intent:
	// two or more bound a range, a single one is the statement cut-off.
	if len(dates) >= 2 {
		minD, maxD := dates[0].date, dates[0].date
		for _, d := range dates[1:] {
			if d.date.Before(minD) {
				minD = d.date
			}
			if d.date.After(maxD) {
				maxD = d.date
			}
		}
		return model.NewDateRange(minD, maxD, model.ProvenanceExplicitRange)
	}
	if len(dates) == 1 {
		return model.NewDateRange(Epoch, dates[0].date, model.ProvenanceExplicitSingle)
	}

	// (e) nothing parsed: epoch through yesterday.
	return Default(now)
}

// Default returns the range used when no date expression is found: the
// fixed epoch through yesterday relative to the processing date.
func Default(now time.Time) model.DateRange {
	return model.NewDateRange(Epoch, now.AddDate(0, 0, -1), model.ProvenanceDefault)
}

func (r *Resolver) today() time.Time {
	n := r.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// fiscal resolves fiscal-year expressions against the April 1 - March 31
// fiscal calendar. "FY23-24" ends in March 2024.
func (r *Resolver) fiscal(s string, now time.Time) (model.DateRange, bool) {
	type hit struct {
		resolve func() model.DateRange
		pos     int
	}
	var hits []hit

	if m := fyRe.FindStringSubmatchIndex(s); m != nil {
		pos := m[0]
		endYear := 0
		if m[4] >= 0 {
			endYear, _ = strconv.Atoi(s[m[4]:m[5]])
		} else {
			endYear, _ = strconv.Atoi(s[m[2]:m[3]])
		}
		if y, ok := fullYear(endYear); ok {
			hits = append(hits, hit{pos: pos, resolve: func() model.DateRange {
				return fiscalYearEnding(y)
			}})
		}
	}
	if loc := thisFYRe.FindStringIndex(s); loc != nil {
		hits = append(hits, hit{pos: loc[0], resolve: func() model.DateRange {
			return fiscalYearEnding(currentFYEnd(now))
		}})
	}
	if loc := lastFYRe.FindStringIndex(s); loc != nil {
		hits = append(hits, hit{pos: loc[0], resolve: func() model.DateRange {
			return fiscalYearEnding(currentFYEnd(now) - 1)
		}})
	}
	if loc := nextFYRe.FindStringIndex(s); loc != nil {
		hits = append(hits, hit{pos: loc[0], resolve: func() model.DateRange {
			return fiscalYearEnding(currentFYEnd(now) + 1)
		}})
	}

	if len(hits) == 0 {
		return model.DateRange{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.pos < best.pos {
			best = h
		}
	}
	return best.resolve(), true
}

// relative resolves periods anchored to the processing date. The first
// matching expression in text order wins.
func (r *Resolver) relative(s string, now time.Time) (model.DateRange, bool) {
	type hit struct {
		resolve func() model.DateRange
		pos     int
	}
	var hits []hit
	add := func(pos int, fn func() model.DateRange) {
		hits = append(hits, hit{pos: pos, resolve: fn})
	}

	if m := lastNRe.FindStringSubmatchIndex(s); m != nil {
		n, _ := strconv.Atoi(s[m[2]:m[3]])
		unit := s[m[4]:m[5]]
		pos := m[0]
		add(pos, func() model.DateRange {
			var from time.Time
			switch unit[0] {
			case 'd':
				from = now.AddDate(0, 0, -n)
			case 'm':
				from = now.AddDate(0, -n, 0)
			default:
				from = now.AddDate(-n, 0, 0)
			}
			return model.NewDateRange(from, now, model.ProvenanceRelative)
		})
	}
	if m := lastPerRe.FindStringSubmatchIndex(s); m != nil {
		period := s[m[2]:m[3]]
		add(m[0], func() model.DateRange { return lastPeriod(period, now) })
	}
	if m := thisPerRe.FindStringSubmatchIndex(s); m != nil {
		period := s[m[2]:m[3]]
		add(m[0], func() model.DateRange { return currentPeriod(period, now) })
	}
	if loc := ytdRe.FindStringIndex(s); loc != nil {
		add(loc[0], func() model.DateRange {
			return model.NewDateRange(time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now, model.ProvenanceRelative)
		})
	}
	if loc := mtdRe.FindStringIndex(s); loc != nil {
		add(loc[0], func() model.DateRange {
			return model.NewDateRange(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now, model.ProvenanceRelative)
		})
	}
	if loc := qtdRe.FindStringIndex(s); loc != nil {
		add(loc[0], func() model.DateRange {
			return model.NewDateRange(quarterStart(now), now, model.ProvenanceRelative)
		})
	}
	if loc := ydayRe.FindStringIndex(s); loc != nil {
		add(loc[0], func() model.DateRange {
			y := now.AddDate(0, 0, -1)
			return model.NewDateRange(y, y, model.ProvenanceRelative)
		})
	}
	if loc := todayRe.FindStringIndex(s); loc != nil {
		add(loc[0], func() model.DateRange {
			return model.NewDateRange(now, now, model.ProvenanceRelative)
		})
	}

	if len(hits) == 0 {
		return model.DateRange{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.pos < best.pos {
			best = h
		}
	}
	return best.resolve(), true
}

// fiscalYearEnding returns April 1 of the prior year through March 31 of
// endYear.
func fiscalYearEnding(endYear int) model.DateRange {
	from := time.Date(endYear-1, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(endYear, time.March, 31, 0, 0, 0, 0, time.UTC)
	return model.NewDateRange(from, to, model.ProvenanceFiscalYear)
}

// currentFYEnd returns the calendar year the running fiscal year ends in.
func currentFYEnd(now time.Time) int {
	if now.Month() >= time.April {
		return now.Year() + 1
	}
	return now.Year()
}

func quarterStart(now time.Time) time.Time {
	q := (int(now.Month()) - 1) / 3
	return time.Date(now.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
}

func currentPeriod(period string, now time.Time) model.DateRange {
	switch period {
	case "year":
		return model.NewDateRange(time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now, model.ProvenanceRelative)
	case "month":
		return model.NewDateRange(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now, model.ProvenanceRelative)
	default: // quarter
		return model.NewDateRange(quarterStart(now), now, model.ProvenanceRelative)
	}
}

func lastPeriod(period string, now time.Time) model.DateRange {
	switch period {
	case "year":
		from := time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(now.Year()-1, 12, 31, 0, 0, 0, 0, time.UTC)
		return model.NewDateRange(from, to, model.ProvenanceRelative)
	case "month":
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		to := firstOfThis.AddDate(0, 0, -1)
		from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
		return model.NewDateRange(from, to, model.ProvenanceRelative)
	default: // quarter
		start := quarterStart(now)
		from := start.AddDate(0, -3, 0)
		to := start.AddDate(0, 0, -1)
		return model.NewDateRange(from, to, model.ProvenanceRelative)
	}
}
