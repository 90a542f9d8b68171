package app

import (
	"errors"
	"time"
)

// Constants
const (
	DateLayout = "2006-01-02"

	GridRows    = 6
	GridColumns = 7
	GridCells   = GridRows * GridColumns

	MaxContentLength = 128

	// Error messages
	ErrInternalServer   = "Internal server error"
	ErrMsgNotFound      = "Event not found"
	ErrMsgInvalidDate   = "Invalid date"
	ErrMsgInvalidInput  = "Invalid input"
	ErrMsgInvalidFormat = "Invalid format"
	ErrFailedToGenerate = "Failed to generate export"
	ErrFailedToPing     = "Database unavailable"

	// Page titles
	TitleCalendar   = "カレンダー"
	TitleAddForm    = "予定入力フォーム"
	TitleUpdateForm = "予定変更フォーム"

	// ICS constants
	ICSProductID = "-//event-kalender//Terminkalender//JA"
	ICSTimezone  = "Asia/Tokyo"
	ICSUIDDomain = "event-kalender.local"
)

// Error kinds surfaced to the request layer.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidEvent  = errors.New("invalid event")
)

// CivilZone is the fixed UTC+9 reference used for "today" and the default redirect.
var CivilZone = time.FixedZone("JST", 9*60*60)

// WeekHeader labels the grid columns, Sunday first.
var WeekHeader = [GridColumns]string{"日", "月", "火", "水", "木", "金", "土"}
