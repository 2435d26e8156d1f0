package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// HolidayCache persists merged holiday sets per year in a local SQLite file.
// An entry is fresh only on the calendar day it was stored, so the feed is
// re-fetched at most once per day.
type HolidayCache struct {
	db  *sql.DB
	now func() time.Time
}

const holidaySchema = `
CREATE TABLE IF NOT EXISTS holidays (
	year          INTEGER NOT NULL,
	date          TEXT    NOT NULL,
	name          TEXT    NOT NULL,
	trading_hours TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (year, date)
);
CREATE TABLE IF NOT EXISTS holiday_meta (
	year       INTEGER PRIMARY KEY,
	fetched_at TEXT NOT NULL
);`

// NewHolidayCache opens (or creates) the cache database at dbPath.
func NewHolidayCache(dbPath string) (*HolidayCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(holidaySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating holiday schema: %w", err)
	}
	return &HolidayCache{db: db, now: time.Now}, nil
}

// SetClock replaces the time source for tests.
func (c *HolidayCache) SetClock(now func() time.Time) {
	c.now = now
}

// Close closes the underlying database connection.
func (c *HolidayCache) Close() error {
	return c.db.Close()
}

// Get returns the cached holidays for a year. ok is false when the year is
// absent or was stored on an earlier calendar day.
func (c *HolidayCache) Get(ctx context.Context, year int) (holidays []Holiday, ok bool, err error) {
	var fetchedAt string
	err = c.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM holiday_meta WHERE year = ?`, year,
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	stored, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parsing fetched_at %q: %w", fetchedAt, err)
	}
	if !sameDay(stored, c.now()) {
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT date, name, trading_hours FROM holidays WHERE year = ? ORDER BY date`, year)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr, name, hours string
		if err := rows.Scan(&dateStr, &name, &hours); err != nil {
			return nil, false, err
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, false, fmt.Errorf("parsing holiday date %q: %w", dateStr, err)
		}
		holidays = append(holidays, Holiday{Date: date.UTC(), Name: name, TradingHours: hours})
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return holidays, true, nil
}

// Put replaces the cached holidays for a year and stamps the entry with the
// current time.
func (c *HolidayCache) Put(ctx context.Context, year int, holidays []Holiday) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE year = ?`, year); err != nil {
		return err
	}
	for _, h := range holidays {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO holidays (year, date, name, trading_hours) VALUES (?, ?, ?, ?)`,
			year, h.Date.Format("2006-01-02"), h.Name, h.TradingHours)
		if err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO holiday_meta (year, fetched_at) VALUES (?, ?)`,
		year, c.now().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Invalidate drops the cached entry for a year.
func (c *HolidayCache) Invalidate(ctx context.Context, year int) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM holidays WHERE year = ?`, year); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM holiday_meta WHERE year = ?`, year)
	return err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
