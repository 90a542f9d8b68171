package app

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// monthPage is the data behind home.html
type monthPage struct {
	Title string
	View  *MonthView
	Week  [GridColumns]string
}

// formPage is the data behind the add and update forms
type formPage struct {
	Title string
	Date  time.Time
	Event *Event
}

// Home redirects to the current month in civil time
func (s *Server) Home(c *fiber.Ctx) error {
	today := s.now().In(CivilZone)
	return c.Redirect(today.Format("/2006/01"), fiber.StatusFound)
}

// Health pings the database
func (s *Server) Health(c *fiber.Ctx) error {
	if err := s.store.Ping(c.UserContext()); err != nil {
		s.logger.Error("Database ping failed", "error", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, ErrFailedToPing)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Month renders the 6x7 grid for /:year/:month
func (s *Server) Month(c *fiber.Ctx) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}

	view, err := BuildGrid(c.UserContext(), s.store, year, month, s.now())
	if err != nil {
		return err
	}

	return s.render(c, "home.html", monthPage{
		Title: TitleCalendar,
		View:  view,
		Week:  WeekHeader,
	})
}

// AddEventForm renders a blank form for the date in the path
func (s *Server) AddEventForm(c *fiber.Ctx) error {
	date, err := pathDate(c)
	if err != nil {
		return err
	}
	return s.render(c, "event_add_form.html", formPage{Title: TitleAddForm, Date: date})
}

// AddEvent creates an event from the submitted form
func (s *Server) AddEvent(c *fiber.Ctx) error {
	date, err := pathDate(c)
	if err != nil {
		return err
	}
	in, err := parseEventForm(c, date)
	if err != nil {
		return err
	}

	event, err := s.store.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	s.logger.Info("Event created", "id", event.ID, "date", event.Date.String(), "person_id", event.PersonID)
	return c.Redirect(MonthPath(event.Date.Time), fiber.StatusFound)
}

// UpdateEventForm renders the edit form filled from the stored event
func (s *Server) UpdateEventForm(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	event, err := s.store.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.render(c, "event_update_form.html", formPage{
		Title: TitleUpdateForm,
		Date:  event.Date.Time,
		Event: event,
	})
}

// UpdateEvent overwrites all fields and redirects to the event's month
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	in, err := parseEventForm(c, time.Time{})
	if err != nil {
		return err
	}

	event, err := s.store.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	s.logger.Info("Event updated", "id", event.ID, "date", event.Date.String())
	return c.Redirect(MonthPath(event.Date.Time), fiber.StatusFound)
}

// DeleteEvent removes an event and redirects to the month it belonged to
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	event, err := s.store.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}

	s.logger.Info("Event deleted", "id", event.ID, "date", event.Date.String())
	return c.Redirect(MonthPath(event.Date.Time), fiber.StatusFound)
}

// Export downloads the month's events in ICS, CSV, JSON or YAML format
// Query params: format (default ics), reminder (HH:MM), days_before (default 0)
func (s *Server) Export(c *fiber.Ctx) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}

	view, err := BuildGrid(c.UserContext(), s.store, year, month, s.now())
	if err != nil {
		return err
	}
	events := view.MonthEvents()

	format := strings.ToLower(c.Query("format", "ics"))
	var buf bytes.Buffer
	var contentType string

	switch format {
	case "ics":
		contentType = "text/calendar; charset=utf-8"
		reminder := Reminder{Time: c.Query("reminder"), DaysBefore: c.QueryInt("days_before", 0)}
		GenerateICS(&buf, view.ThisMonth, events, reminder, s.now())
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = GenerateCSV(&buf, events)
	case "json":
		contentType = fiber.MIMEApplicationJSONCharsetUTF8
		err = GenerateJSON(&buf, view.ThisMonth, events)
	case "yaml":
		contentType = "application/yaml; charset=utf-8"
		err = GenerateYAML(&buf, view.ThisMonth, events)
	default:
		return fiber.NewError(fiber.StatusBadRequest, ErrMsgInvalidFormat)
	}
	if err != nil {
		s.logger.Error("Export failed", "format", format, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, ErrFailedToGenerate)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=events_%04d_%02d.%s", year, month, format))
	return c.Send(buf.Bytes())
}

// pathDate reads :year/:month/:day as a civil date
func pathDate(c *fiber.Ctx) (time.Time, error) {
	year, month, err := yearMonth(c)
	if err != nil {
		return time.Time{}, err
	}
	day, err := paramInt(c, "day")
	if err != nil {
		return time.Time{}, err
	}
	return DayOf(year, month, day)
}
