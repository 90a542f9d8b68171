package app

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a civil date stored as YYYY-MM-DD so equality lookups behave the same on every driver
type Date struct {
	time.Time
}

// NewDate drops the time of day from t.
func NewDate(t time.Time) Date {
	return Date{CivilDate(t)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// GormDataType declares the column type for migrations.
func (Date) GormDataType() string {
	return "date"
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. Drivers hand back either a time or its text form.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = CivilDate(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		return fmt.Errorf("scan date: null value")
	}
	return fmt.Errorf("scan date: unsupported type %T", src)
}

func (d *Date) parse(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("scan date: %q", s)
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalYAML writes the date as a YYYY-MM-DD string.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Event represents a single calendar entry
type Event struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id" yaml:"id"`
	Date     Date   `gorm:"not null;index" json:"date" yaml:"date"`
	PersonID int    `gorm:"not null" json:"person_id" yaml:"person_id"`
	Content  string `gorm:"size:128;not null" json:"content" yaml:"content"`
}

// TableName keeps the single-table schema name stable across drivers.
func (Event) TableName() string {
	return "event"
}

// EventInput carries the mutable fields of an Event
type EventInput struct {
	Date     time.Time
	PersonID int
	Content  string
}

// Cell is one date slot of the month grid
type Cell struct {
	Date   time.Time
	Events []Event
}

// MonthView is everything the month page needs
type MonthView struct {
	Rows      [GridRows][GridColumns]Cell
	ThisMonth time.Time
	PrevMonth time.Time
	NextMonth time.Time
	Today     time.Time

	// False at the ends of the supported year range
	HasPrev bool
	HasNext bool
}

// Cells returns the grid in calendar order.
func (v *MonthView) Cells() []Cell {
	cells := make([]Cell, 0, GridCells)
	for _, row := range v.Rows {
		cells = append(cells, row[:]...)
	}
	return cells
}

// MonthEvents returns the events of cells inside ThisMonth, in date order.
func (v *MonthView) MonthEvents() []Event {
	var events []Event
	for _, cell := range v.Cells() {
		if cell.Date.Month() == v.ThisMonth.Month() && cell.Date.Year() == v.ThisMonth.Year() {
			events = append(events, cell.Events...)
		}
	}
	return events
}
