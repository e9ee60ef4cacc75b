package daterange

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// candidate is a date literal found in the text with its span.
type candidate struct {
	date    time.Time
	start   int
	end     int
	partial bool
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Literal patterns tried most specific first; a later pattern may not claim
// a span already claimed by an earlier one.
var (
	// 15-mar-2024, 15 march 24, 3rd apr, 2024
	dmyNameRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?[\s\-/.]+([a-z]{3,9})[\s\-/.,]+(\d{4}|\d{2})\b`)
	// march 15, 2024 / mar-15-24
	mdyNameRe = regexp.MustCompile(`\b([a-z]{3,9})[\s\-/.]+(\d{1,2})(?:st|nd|rd|th)?[\s\-/.,]+(\d{4}|\d{2})\b`)
	// 2024-03-15
	isoRe = regexp.MustCompile(`\b(\d{4})[\-/.](\d{1,2})[\-/.](\d{1,2})\b`)
	// 15/03/2024, 15-3-24 (day-first preference)
	dmyNumRe = regexp.MustCompile(`\b(\d{1,2})[\-/.](\d{1,2})[\-/.](\d{4}|\d{2})\b`)
	// 15 march (year omitted)
	dmPartialRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]{3,9})\b`)
	// march 15 (year omitted)
	mdPartialRe = regexp.MustCompile(`\b([a-z]{3,9})\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
)

// findDates scans text for date literals and returns them in text order.
// Partial dates (year omitted) default to now's year, rolled back one year
// when that would land in the future.
func findDates(text string, now time.Time) []candidate {
	var found []candidate

	claim := func(start, end int, d time.Time, ok, partial bool) {
		if !ok {
			return
		}
		for _, f := range found {
			if start < f.end && end > f.start {
				return
			}
		}
		found = append(found, candidate{date: d, start: start, end: end, partial: partial})
	}

	for _, loc := range dmyNameRe.FindAllStringSubmatchIndex(text, -1) {
		day := num(text, loc, 1)
		mon, mok := months[sub(text, loc, 2)]
		year, yok := fullYear(num(text, loc, 3))
		d, ok := makeDate(year, mon, day)
		claim(loc[0], loc[1], d, mok && yok && ok, false)
	}
	for _, loc := range mdyNameRe.FindAllStringSubmatchIndex(text, -1) {
		mon, mok := months[sub(text, loc, 1)]
		day := num(text, loc, 2)
		year, yok := fullYear(num(text, loc, 3))
		d, ok := makeDate(year, mon, day)
		claim(loc[0], loc[1], d, mok && yok && ok, false)
	}
	for _, loc := range isoRe.FindAllStringSubmatchIndex(text, -1) {
		year, yok := fullYear(num(text, loc, 1))
		mon := num(text, loc, 2)
		day := num(text, loc, 3)
		d, ok := makeDate(year, time.Month(mon), day)
		claim(loc[0], loc[1], d, yok && ok, false)
	}
	for _, loc := range dmyNumRe.FindAllStringSubmatchIndex(text, -1) {
		day := num(text, loc, 1)
		mon := num(text, loc, 2)
		year, yok := fullYear(num(text, loc, 3))
		// Day-first preference; swap when only the month-first reading is valid.
		if mon > 12 && day <= 12 {
			day, mon = mon, day
		}
		d, ok := makeDate(year, time.Month(mon), day)
		claim(loc[0], loc[1], d, yok && ok, false)
	}
	for _, loc := range dmPartialRe.FindAllStringSubmatchIndex(text, -1) {
		day := num(text, loc, 1)
		mon, mok := months[sub(text, loc, 2)]
		d, ok := partialDate(now, mon, day)
		claim(loc[0], loc[1], d, mok && ok, true)
	}
	for _, loc := range mdPartialRe.FindAllStringSubmatchIndex(text, -1) {
		mon, mok := months[sub(text, loc, 1)]
		day := num(text, loc, 2)
		d, ok := partialDate(now, mon, day)
		claim(loc[0], loc[1], d, mok && ok, true)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })
	return found
}

// firstDateAfter returns the first found date starting at or after pos,
// within at most span bytes of it.
func firstDateAfter(dates []candidate, pos, span int) (candidate, bool) {
	for _, d := range dates {
		if d.start >= pos && d.start-pos <= span {
			return d, true
		}
	}
	return candidate{}, false
}

func sub(text string, loc []int, group int) string {
	return strings.TrimSpace(text[loc[2*group]:loc[2*group+1]])
}

func num(text string, loc []int, group int) int {
	n, _ := strconv.Atoi(sub(text, loc, group))
	return n
}

// fullYear expands 2-digit years and bounds all years to a sane window.
func fullYear(y int) (int, bool) {
	if y < 100 {
		if y <= 50 {
			y += 2000
		} else {
			y += 1900
		}
	}
	return y, y >= 1990 && y <= 2050
}

// makeDate builds a UTC calendar date, rejecting day overflow (e.g. Feb 30).
func makeDate(year int, mon time.Month, day int) (time.Time, bool) {
	if mon < time.January || mon > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, mon, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != mon {
		return time.Time{}, false
	}
	return d, true
}

// partialDate resolves a day/month with no year to the current year, rolling
// back one year when the result would be in the future.
func partialDate(now time.Time, mon time.Month, day int) (time.Time, bool) {
	d, ok := makeDate(now.Year(), mon, day)
	if !ok {
		return time.Time{}, false
	}
	if d.After(now) {
		d, ok = makeDate(now.Year()-1, mon, day)
	}
	return d, ok
}
