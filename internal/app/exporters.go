package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Reminder configures an optional VALARM on every exported event
type Reminder struct {
	Time       string // HH:MM, empty disables the alarm
	DaysBefore int
}

// monthExport is the document shape of the JSON and YAML exports
type monthExport struct {
	Month  string  `json:"month" yaml:"month"`
	Events []Event `json:"events" yaml:"events"`
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// icsLine writes one content line terminated by CRLF
func icsLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\r\n", args...)
}

// EventUID derives a stable iCalendar UID from the event id
func EventUID(id uint) string {
	name := fmt.Sprintf("https://%s/events/%d", ICSUIDDomain, id)
	return fmt.Sprintf("%s@%s", uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)), ICSUIDDomain)
}

// GenerateICS writes an iCalendar document with one all-day VEVENT per event
func GenerateICS(w io.Writer, month time.Time, events []Event, reminder Reminder, stamp time.Time) {
	icsLine(w, "BEGIN:VCALENDAR")
	icsLine(w, "VERSION:2.0")
	icsLine(w, "PRODID:%s", ICSProductID)
	icsLine(w, "X-WR-CALNAME:%s %s", TitleCalendar, month.Format("2006-01"))
	icsLine(w, "X-WR-TIMEZONE:%s", ICSTimezone)
	icsLine(w, "CALSCALE:GREGORIAN")

	dtstamp := stamp.UTC().Format("20060102T150405Z")
	for _, event := range events {
		icsLine(w, "BEGIN:VEVENT")
		icsLine(w, "UID:%s", EventUID(event.ID))
		icsLine(w, "DTSTAMP:%s", dtstamp)
		icsLine(w, "DTSTART;VALUE=DATE:%s", event.Date.Format("20060102"))
		icsLine(w, "DTEND;VALUE=DATE:%s", event.Date.AddDate(0, 0, 1).Format("20060102"))
		icsLine(w, "SUMMARY:%s", icsEscaper.Replace(event.Content))
		icsLine(w, "DESCRIPTION:person %d", event.PersonID)

		if reminder.Time != "" {
			AddAlarm(w, event.Date.Time, reminder.DaysBefore, reminder.Time, event.Content)
		}

		icsLine(w, "END:VEVENT")
	}

	icsLine(w, "END:VCALENDAR")
}

// AddAlarm adds an alarm/reminder to an ICS event
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	// Parse alarm time (HH:MM format)
	parts := strings.Split(alarmTime, ":")
	if len(parts) != 2 {
		return
	}

	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}

	// All-day events start at 00:00; the trigger is relative to that instant.
	eventStart := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, time.UTC)
	alarmDate := eventStart.AddDate(0, 0, -daysBefore)
	alarmDateTime := time.Date(alarmDate.Year(), alarmDate.Month(), alarmDate.Day(), hour, minute, 0, 0, time.UTC)
	duration := alarmDateTime.Sub(eventStart)

	totalMinutes := int(duration.Minutes())
	sign := ""
	if totalMinutes < 0 {
		sign = "-"
		totalMinutes = -totalMinutes
	}

	days := totalMinutes / (24 * 60)
	remainingMinutes := totalMinutes % (24 * 60)
	hours := remainingMinutes / 60
	minutes := remainingMinutes % 60

	icsLine(w, "BEGIN:VALARM")
	icsLine(w, "ACTION:DISPLAY")
	icsLine(w, "DESCRIPTION:%s", icsEscaper.Replace(description))
	icsLine(w, "TRIGGER:%sP%dDT%dH%dM", sign, days, hours, minutes)
	icsLine(w, "END:VALARM")
}

// GenerateCSV writes date,person_id,content rows
func GenerateCSV(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "person_id", "content"}); err != nil {
		return err
	}
	for _, event := range events {
		row := []string{event.Date.String(), strconv.Itoa(event.PersonID), event.Content}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateJSON writes the month's events as one JSON document
func GenerateJSON(w io.Writer, month time.Time, events []Event) error {
	return json.NewEncoder(w).Encode(newMonthExport(month, events))
}

// GenerateYAML writes the month's events as one YAML document
func GenerateYAML(w io.Writer, month time.Time, events []Event) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newMonthExport(month, events)); err != nil {
		return err
	}
	return enc.Close()
}

func newMonthExport(month time.Time, events []Event) monthExport {
	if events == nil {
		events = []Event{}
	}
	return monthExport{Month: month.Format("2006-01"), Events: events}
}
