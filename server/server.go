// Package server exposes a desktop session over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"webdesk/desktop"
	"webdesk/store"
)

// SettingsStore reads and writes the appearance settings.
type SettingsStore interface {
	Settings(ctx context.Context) (store.Settings, error)
	PutSetting(ctx context.Context, key string, value json.RawMessage) error
}

// Config holds the server options.
type Config struct {
	Addr      string
	WriteMode bool
	// UploadDir holds partial tus uploads; uploads are disabled when empty.
	UploadDir string
	// MaxUploadBytes caps a single upload; 0 means no limit.
	MaxUploadBytes int64
	// AuditLog is the JSONL file mutations are appended to; empty disables it.
	AuditLog string
	Version  string
}

type Server struct {
	cfg      Config
	session  *desktop.Session
	settings SettingsStore
	log      *logrus.Entry
	app      *fiber.App
	audit    *auditLog

	// Tracks in-flight mutations for graceful shutdown
	opsInProgress sync.WaitGroup
}

// New builds the fiber app and registers every route.
func New(session *desktop.Session, settings SettingsStore, cfg Config, log *logrus.Entry) (*Server, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		cfg:      cfg,
		session:  session,
		settings: settings,
		log:      log.WithField("component", "server"),
	}
	if cfg.AuditLog != "" {
		s.audit = newAuditLog(cfg.AuditLog, s.log)
	}

	s.app = fiber.New(fiber.Config{
		// Ids from params and bodies end up in session events.
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"status": "error", "error": fe.Message})
			}
			s.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "error": "Internal Server Error"})
		},
	})
	s.app.Use(cors.New())
	s.routes()

	if err := s.setupTusUpload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() {
	app := s.app

	app.Get("/", s.handleIndex)
	app.Get("/tree", s.handleTree)
	app.Get("/entities/:id", s.handleEntity)
	app.Get("/entities/:id/open", s.handleOpen)
	app.Get("/content/:id", s.handleContent)
	app.Get("/zip/:id", s.handleZipDownload)
	app.Get("/clipboard", s.handleClipboard)
	app.Get("/menu", s.handleMenu)
	app.Post("/select", s.handleSelect)
	app.Get("/settings", s.handleSettings)

	w := s.requireWrite
	app.Post("/entities", w, s.handleCreate)
	app.Post("/rename", w, s.handleRename)
	app.Post("/move", w, s.handleMove)
	app.Post("/sort", w, s.handleSort)
	app.Put("/entities/:id/content", w, s.handleUpdateContent)
	app.Post("/manage", w, s.handleManage)
	app.Post("/menu/:action", w, s.handleMenuAction)
	app.Post("/keys", w, s.handleKey)
	app.Put("/settings/:key", w, s.handlePutSetting)

	// WebSocket upgrade middleware
	app.Use("/files", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/files", websocket.New(s.handleWebSocket))
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	s.log.WithFields(logrus.Fields{"addr": s.cfg.Addr, "write": s.cfg.WriteMode}).Info("Server starting")
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown stops accepting requests and waits for in-progress mutations.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.log.Info("Waiting for in-progress operations...")
	s.opsInProgress.Wait()
	s.log.Info("All operations completed")
	return err
}

func (s *Server) requireWrite(c *fiber.Ctx) error {
	if !s.cfg.WriteMode {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": "error",
			"error":  "Desktop changes are disabled. Use --write flag to enable write mode",
		})
	}
	s.opsInProgress.Add(1)
	defer s.opsInProgress.Done()
	return c.Next()
}

// result maps an operation error onto the JSON envelope. Operations that
// did not apply are reported as "noop" with a 200.
func (s *Server) result(c *fiber.Ctx, err error, extra fiber.Map) error {
	body := fiber.Map{"status": "ok", "version": s.session.Version()}
	for k, v := range extra {
		body[k] = v
	}
	switch {
	case err == nil:
	case desktop.IsNoop(err):
		body["status"] = "noop"
		body["error"] = err.Error()
	default:
		return err
	}
	return c.JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status": "error",
		"error":  msg,
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status": "error",
		"error":  msg,
	})
}
