package app

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Options tunes a Server; zero values fall back to defaults.
type Options struct {
	Now          Clock
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wires the event store into the HTTP routes
type Server struct {
	store  EventStore
	logger *slog.Logger
	now    Clock
	pages  *template.Template
	app    *fiber.App
}

// NewServer builds the Fiber application with all routes registered.
func NewServer(store EventStore, logger *slog.Logger, opts Options) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  store,
		logger: logger,
		now:    opts.Now,
		pages:  pages,
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "event-kalender",
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.logRequests)
	s.app.Use(recover.New())

	s.routes()
	return s, nil
}

// routes registers handlers; fixed prefixes go before the /:year/:month catch-all.
func (s *Server) routes() {
	s.app.Get("/", s.Home)
	s.app.Get("/healthz", s.Health)

	s.app.Get("/add_event/:year/:month/:day", s.AddEventForm)
	s.app.Post("/add_event/:year/:month/:day", s.AddEvent)
	s.app.Get("/update_event/:id", s.UpdateEventForm)
	s.app.Post("/update_event/:id", s.UpdateEvent)
	s.app.Get("/delete/:id", s.DeleteEvent)
	s.app.Get("/export/:year/:month", s.Export)

	s.app.Get("/:year/:month", s.Month)
}

// App exposes the Fiber application, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Listen(ctx context.Context, addr string, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// handleError maps error kinds to status codes
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := ErrInternalServer

	var fe *fiber.Error
	switch {
	case errors.Is(err, ErrEventNotFound):
		code, msg = fiber.StatusNotFound, ErrMsgNotFound
	case errors.Is(err, ErrInvalidDate):
		code, msg = fiber.StatusBadRequest, ErrMsgInvalidDate
	case errors.Is(err, ErrInvalidEvent):
		code, msg = fiber.StatusBadRequest, ErrMsgInvalidInput
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err)
	} else {
		s.logger.Debug("Request rejected", "path", c.Path(), "status", code, "error", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(msg)
}

// logRequests writes one line per request after the error handler has set the status.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()

	if chainErr := c.Next(); chainErr != nil {
		if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info("HTTP request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
		"request_id", c.Locals("requestid"))
	return nil
}

// render executes a page into a buffer so template errors never leave half a page behind.
func (s *Server) render(c *fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
