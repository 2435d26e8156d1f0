// Package calendar answers market-schedule questions for the dashboard: US
// exchange holidays, business-day arithmetic, the NYSE trading window, and
// the world clock. Holidays merge a computed standard set with the Finnhub
// exchange feed, cached in a local SQLite file.
package calendar

import (
	"sort"
	"time"
)

// Holiday is one market closure. TradingHours is empty for a full closure
// and holds the shortened session (for example "09:30-13:00") on early-close
// days, as reported by Finnhub.
type Holiday struct {
	Date         time.Time `json:"date"`
	Name         string    `json:"name"`
	TradingHours string    `json:"tradingHours,omitempty"`
}

// EasterSunday computes Easter for the given year using Butcher's algorithm.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StandardHolidays returns the computed US market holidays for a year,
// sorted by date. Fixed-date holidays falling on a weekend shift to the
// observed weekday.
func StandardHolidays(year int) []Holiday {
	hs := []Holiday{
		{Date: observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)), Name: "New Year's Day"},
		{Date: nthWeekday(year, time.January, time.Monday, 3), Name: "Martin Luther King Jr. Day"},
		{Date: nthWeekday(year, time.February, time.Monday, 3), Name: "Presidents' Day"},
		{Date: EasterSunday(year).AddDate(0, 0, -2), Name: "Good Friday"},
		{Date: lastWeekday(year, time.May, time.Monday), Name: "Memorial Day"},
		{Date: observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)), Name: "Juneteenth"},
		{Date: observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)), Name: "Independence Day"},
		{Date: nthWeekday(year, time.September, time.Monday, 1), Name: "Labor Day"},
		{Date: nthWeekday(year, time.November, time.Thursday, 4), Name: "Thanksgiving Day"},
		{Date: observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)), Name: "Christmas Day"},
	}

	sort.Slice(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
	return hs
}

// observed shifts a weekend holiday to its observed weekday: Saturday to the
// Friday before, Sunday to the Monday after.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// nthWeekday returns the n-th (1-based) weekday of the month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last weekday of the month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
