package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// HolidaySource fetches the exchange holiday feed. *FinnhubClient is the
// production implementation.
type HolidaySource interface {
	Holidays(ctx context.Context) ([]Holiday, error)
}

var _ HolidaySource = (*FinnhubClient)(nil)

// MarketHours is the regular trading window of the exchange, expressed in
// its local zone.
type MarketHours struct {
	Location  *time.Location
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
}

// NewMarketHours resolves the zone name and builds the trading window.
func NewMarketHours(zone string, openHour, openMin, closeHour, closeMin int) (MarketHours, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return MarketHours{}, fmt.Errorf("loading market zone %q: %w", zone, err)
	}
	return MarketHours{
		Location:  loc,
		OpenHour:  openHour,
		OpenMin:   openMin,
		CloseHour: closeHour,
		CloseMin:  closeMin,
	}, nil
}

// Calendar answers schedule questions by merging computed standard holidays
// with the exchange feed, memoized per year on top of the SQLite cache.
type Calendar struct {
	cache  *HolidayCache
	source HolidaySource
	hours  MarketHours
	log    *slog.Logger

	mu   sync.Mutex
	memo map[int]map[time.Time]Holiday
}

// New creates a Calendar. source may be nil, in which case only the computed
// standard holidays apply.
func New(cache *HolidayCache, source HolidaySource, hours MarketHours) *Calendar {
	return &Calendar{
		cache:  cache,
		source: source,
		hours:  hours,
		log:    slog.Default().With("component", "calendar"),
		memo:   make(map[int]map[time.Time]Holiday),
	}
}

// IsWeekend reports whether t's date falls on Saturday or Sunday.
func (c *Calendar) IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// HolidayOn returns the holiday on t's date, or nil. The date is read from t
// as given: a UTC midnight queries that calendar day, never the market-zone
// evening before it. Callers holding a bare instant convert to the market
// zone first, as IsMarketOpen does.
func (c *Calendar) HolidayOn(ctx context.Context, t time.Time) (*Holiday, error) {
	byDate, err := c.holidaysFor(ctx, t.Year())
	if err != nil {
		return nil, err
	}
	if h, ok := byDate[dateKey(t)]; ok {
		return &h, nil
	}
	return nil, nil
}

// IsHoliday reports whether t's date is a full market closure. Early-close
// days count as open.
func (c *Calendar) IsHoliday(ctx context.Context, t time.Time) (bool, error) {
	h, err := c.HolidayOn(ctx, t)
	if err != nil {
		return false, err
	}
	return h != nil && h.TradingHours == "", nil
}

// Holidays returns the merged holiday set for a year, sorted by date.
func (c *Calendar) Holidays(ctx context.Context, year int) ([]Holiday, error) {
	byDate, err := c.holidaysFor(ctx, year)
	if err != nil {
		return nil, err
	}
	out := make([]Holiday, 0, len(byDate))
	for _, h := range byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// NextBusinessDay returns the first day strictly after t's date that is
// neither a weekend nor a full closure.
func (c *Calendar) NextBusinessDay(ctx context.Context, t time.Time) (time.Time, error) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.hours.Location)
	for {
		d = d.AddDate(0, 0, 1)
		if c.IsWeekend(d) {
			continue
		}
		closed, err := c.IsHoliday(ctx, d)
		if err != nil {
			return time.Time{}, err
		}
		if !closed {
			return d, nil
		}
	}
}

// IsMarketOpen reports whether the market is in its regular session at now.
func (c *Calendar) IsMarketOpen(ctx context.Context, now time.Time) (bool, error) {
	local := now.In(c.hours.Location)
	if c.IsWeekend(local) {
		return false, nil
	}
	closed, err := c.IsHoliday(ctx, local)
	if err != nil {
		return false, err
	}
	if closed {
		return false, nil
	}

	open, close := c.sessionOn(local)
	return !local.Before(open) && local.Before(close), nil
}

// NextOpen returns the next session open strictly after now (or now's own
// open when the session has not started yet today).
func (c *Calendar) NextOpen(ctx context.Context, now time.Time) (time.Time, error) {
	local := now.In(c.hours.Location)

	if !c.IsWeekend(local) {
		closed, err := c.IsHoliday(ctx, local)
		if err != nil {
			return time.Time{}, err
		}
		if !closed {
			if open, _ := c.sessionOn(local); local.Before(open) {
				return open, nil
			}
		}
	}

	day, err := c.NextBusinessDay(ctx, local)
	if err != nil {
		return time.Time{}, err
	}
	open, _ := c.sessionOn(day)
	return open, nil
}

// NextClose returns the close of the session in progress, or of the next
// session when the market is closed at now.
func (c *Calendar) NextClose(ctx context.Context, now time.Time) (time.Time, error) {
	open, err := c.IsMarketOpen(ctx, now)
	if err != nil {
		return time.Time{}, err
	}
	if open {
		_, close := c.sessionOn(now.In(c.hours.Location))
		return close, nil
	}

	nextOpen, err := c.NextOpen(ctx, now)
	if err != nil {
		return time.Time{}, err
	}
	_, close := c.sessionOn(nextOpen)
	return close, nil
}

// sessionOn returns the open and close instants of the regular session on
// d's date, in the market zone.
func (c *Calendar) sessionOn(d time.Time) (open, close time.Time) {
	open = time.Date(d.Year(), d.Month(), d.Day(), c.hours.OpenHour, c.hours.OpenMin, 0, 0, c.hours.Location)
	close = time.Date(d.Year(), d.Month(), d.Day(), c.hours.CloseHour, c.hours.CloseMin, 0, 0, c.hours.Location)
	return open, close
}

// holidaysFor returns the merged holiday map for a year: memo, then SQLite
// cache, then the feed. A feed failure degrades to the computed standard set
// without caching it, so the next call retries.
func (c *Calendar) holidaysFor(ctx context.Context, year int) (map[time.Time]Holiday, error) {
	c.mu.Lock()
	if byDate, ok := c.memo[year]; ok {
		c.mu.Unlock()
		return byDate, nil
	}
	c.mu.Unlock()

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, year)
		if err != nil {
			return nil, err
		}
		if ok {
			byDate := indexByDate(cached)
			c.memoize(year, byDate)
			return byDate, nil
		}
	}

	merged := StandardHolidays(year)
	cacheable := true
	if c.source != nil {
		feed, err := c.source.Holidays(ctx)
		if err != nil {
			c.log.Warn("holiday feed unavailable, using computed set", "year", year, "err", err)
			cacheable = false
		} else {
			merged = mergeHolidays(merged, feed, year)
		}
	}

	byDate := indexByDate(merged)
	if cacheable && c.cache != nil {
		if err := c.cache.Put(ctx, year, merged); err != nil {
			c.log.Warn("caching holidays failed", "year", year, "err", err)
		}
	}
	c.memoize(year, byDate)
	return byDate, nil
}

func (c *Calendar) memoize(year int, byDate map[time.Time]Holiday) {
	c.mu.Lock()
	c.memo[year] = byDate
	c.mu.Unlock()
}

// mergeHolidays overlays the feed entries for the year onto the standard
// set. The feed wins on date conflicts.
func mergeHolidays(standard, feed []Holiday, year int) []Holiday {
	byDate := indexByDate(standard)
	for _, h := range feed {
		if h.Date.Year() != year {
			continue
		}
		byDate[dateKey(h.Date)] = h
	}

	out := make([]Holiday, 0, len(byDate))
	for _, h := range byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func indexByDate(hs []Holiday) map[time.Time]Holiday {
	byDate := make(map[time.Time]Holiday, len(hs))
	for _, h := range hs {
		byDate[dateKey(h.Date)] = h
	}
	return byDate
}

// dateKey normalizes to a UTC-midnight key on the civil date.
func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// World clock
// ---------------------------------------------------------------------------

// CityZone is one configured world-clock entry.
type CityZone struct {
	Label string
	Zone  string
}

// CityTime is the current time in one city.
type CityTime struct {
	Label string `json:"label"`
	Zone  string `json:"zone"`
	Time  string `json:"time"`
}

// WorldClock renders now in each configured city. Unresolvable zones are
// skipped.
func WorldClock(cities []CityZone, now time.Time) []CityTime {
	out := make([]CityTime, 0, len(cities))
	for _, city := range cities {
		loc, err := time.LoadLocation(city.Zone)
		if err != nil {
			continue
		}
		out = append(out, CityTime{
			Label: city.Label,
			Zone:  city.Zone,
			Time:  now.In(loc).Format("2006-01-02 15:04:05 MST"),
		})
	}
	return out
}
