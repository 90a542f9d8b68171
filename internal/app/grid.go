package app

import (
	"context"
	"fmt"
	"time"
)

// DateQuerier looks up the events stored on one civil date
type DateQuerier interface {
	ByDate(ctx context.Context, date time.Time) ([]Event, error)
}

// FirstCell returns the Sunday on or before the 1st of the month.
func FirstCell(first time.Time) time.Time {
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// GridDates returns the 42 consecutive dates shown for the month.
func GridDates(year, month int) ([GridCells]time.Time, error) {
	var dates [GridCells]time.Time
	first, err := MonthStart(year, month)
	if err != nil {
		return dates, err
	}
	d := FirstCell(first)
	for i := range dates {
		dates[i] = d
		d = d.AddDate(0, 0, 1)
	}
	return dates, nil
}

// BuildGrid lays out the month and fills every cell with a point query per date.
func BuildGrid(ctx context.Context, q DateQuerier, year, month int, now time.Time) (*MonthView, error) {
	dates, err := GridDates(year, month)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	view := &MonthView{
		ThisMonth: first,
		PrevMonth: first.AddDate(0, -1, 0),
		NextMonth: first.AddDate(0, 1, 0),
		Today:     Today(now),
	}
	view.HasPrev = inRange(view.PrevMonth)
	view.HasNext = inRange(view.NextMonth)

	for i, d := range dates {
		events, err := q.ByDate(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("events on %s: %w", d.Format(DateLayout), err)
		}
		view.Rows[i/GridColumns][i%GridColumns] = Cell{Date: d, Events: events}
	}

	return view, nil
}

// inRange reports whether the month of t is one MonthStart accepts
func inRange(t time.Time) bool {
	_, err := MonthStart(t.Year(), int(t.Month()))
	return err == nil
}
