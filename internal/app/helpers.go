package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// paramInt reads a numeric path segment
func paramInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Params(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, raw, ErrInvalidDate)
	}
	return n, nil
}

// paramID reads the :id segment
func paramID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", raw, ErrInvalidEvent)
	}
	return uint(id), nil
}

// yearMonth reads the :year and :month segments
func yearMonth(c *fiber.Ctx) (int, int, error) {
	year, err := paramInt(c, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := paramInt(c, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// parseEventForm reads date, person_id and content; fallback is used when date is empty.
func parseEventForm(c *fiber.Ctx, fallback time.Time) (EventInput, error) {
	in := EventInput{Date: fallback, Content: c.FormValue("content")}

	if raw := strings.TrimSpace(c.FormValue("date")); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	if in.Date.IsZero() {
		return in, fmt.Errorf("missing date: %w", ErrInvalidEvent)
	}

	raw := strings.TrimSpace(c.FormValue("person_id"))
	personID, err := strconv.Atoi(raw)
	if err != nil {
		return in, fmt.Errorf("person_id %q: %w", raw, ErrInvalidEvent)
	}
	in.PersonID = personID

	return in, nil
}

// MonthPath is the month view URL for a date
func MonthPath(t time.Time) string {
	return fmt.Sprintf("/%d/%d", t.Year(), int(t.Month()))
}

// AddPath is the add form URL for a date
func AddPath(t time.Time) string {
	return fmt.Sprintf("/add_event/%d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// InMonth reports whether t lies in the month of ref
func InMonth(t, ref time.Time) bool {
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}
