package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/klabast/wb-services/event-kalender/internal/config"
)

// EventStore is the persistence boundary of the scheduler
type EventStore interface {
	DateQuerier
	Create(ctx context.Context, in EventInput) (*Event, error)
	Get(ctx context.Context, id uint) (*Event, error)
	Update(ctx context.Context, id uint, in EventInput) (*Event, error)
	Delete(ctx context.Context, id uint) (*Event, error)
	Ping(ctx context.Context) error
}

// GormStore keeps events in a relational table through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// OpenDatabase connects to the database described by cfg.
func OpenDatabase(cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(slogWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// CloseDatabase releases the connection pool behind db.
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the event table
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Event{}); err != nil {
		return fmt.Errorf("failed to migrate event table: %w", err)
	}
	return nil
}

// Create stores a new event and returns it with its assigned id
func (s *GormStore) Create(ctx context.Context, in EventInput) (*Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	event := Event{
		Date:     NewDate(in.Date),
		PersonID: in.PersonID,
		Content:  in.Content,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &event, nil
}

// Get fetches one event by id
func (s *GormStore) Get(ctx context.Context, id uint) (*Event, error) {
	var event Event
	err := s.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	return &event, nil
}

// Update overwrites date, person and content of an existing event
func (s *GormStore) Update(ctx context.Context, id uint, in EventInput) (*Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Date = NewDate(in.Date)
	event.PersonID = in.PersonID
	event.Content = in.Content

	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", id, err)
	}
	return event, nil
}

// Delete removes an event and returns what was stored, so callers know its month
func (s *GormStore) Delete(ctx context.Context, id uint) (*Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Delete(&Event{}, id)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete event %d: %w", id, res.Error)
	}
	// Someone else removed it between the read and the delete.
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
	}
	return event, nil
}

// ByDate returns the events stored on exactly that date
func (s *GormStore) ByDate(ctx context.Context, date time.Time) ([]Event, error) {
	var events []Event
	err := s.db.WithContext(ctx).
		Where(map[string]any{"date": NewDate(date)}).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

// Ping checks that the database answers
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func validateInput(in EventInput) error {
	if in.Date.IsZero() {
		return fmt.Errorf("missing date: %w", ErrInvalidEvent)
	}
	if n := utf8.RuneCountInString(in.Content); n > MaxContentLength {
		return fmt.Errorf("content has %d characters, limit is %d: %w", n, MaxContentLength, ErrInvalidEvent)
	}
	return nil
}

// slogWriter routes gorm's printf-style logger into slog
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Info(fmt.Sprintf(format, args...), "component", "gorm")
}
