// Package web serves the gimbal dashboard API: the latest status, live
// tuning, recent logs and websocket feeds for status, logs and an annotated
// camera stream.
package web

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/gimbal"
	"github.com/teslashibe/go-gimbal/pkg/hub"
)

// Tuner is the live-tuning side of the control loop
type Tuner interface {
	Tuning() gimbal.TuningParams
	SetTuning(gimbal.TuningParams)
}

// maxLogs is the size of the recent log buffer
const maxLogs = 500

// Server is the dashboard server
type Server struct {
	app  *fiber.App
	port int

	tuner   Tuner
	tunerMu sync.RWMutex

	status    gimbal.Status
	hasStatus bool
	statusMu  sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub

	stream *streamLimiter

	log *slog.Logger
}

// NewServer creates the dashboard on port. The tuner may be set later.
func NewServer(port int) *Server {
	s := &Server{
		port:      port,
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.New("status"),
		logHub:    hub.New("logs"),
		cameraHub: hub.New("camera"),
		stream:    newStreamLimiter(5),
		log:       log.Component("web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Gimbal Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Get("/logs", s.handleGetLogs)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// SetTuner connects the tuning endpoints to a running control loop
func (s *Server) SetTuner(t Tuner) {
	s.tunerMu.Lock()
	s.tuner = t
	s.tunerMu.Unlock()
}

// Start runs the hubs and serves until Shutdown
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	s.log.Info("dashboard listening", "url", fmt.Sprintf("http://localhost:%d", s.port))
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// StartAsync starts the server in a goroutine and logs a failure
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.log.Error("dashboard stopped", "error", err)
		}
	}()
}

// Shutdown disconnects websocket clients and stops the listener
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.logHub.Stop()
	s.cameraHub.Stop()
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// PublishStatus stores the latest status and pushes it to websocket clients
func (s *Server) PublishStatus(status gimbal.Status) {
	s.statusMu.Lock()
	s.status = status
	s.hasStatus = true
	s.statusMu.Unlock()

	if err := s.statusHub.BroadcastJSON(status); err != nil {
		s.log.Warn("status encode failed", "error", err)
	}
}

// Status returns the last published status
func (s *Server) Status() (gimbal.Status, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status, s.hasStatus
}

// addLog appends to the recent log buffer and pushes the entry to clients
func (s *Server) addLog(entry LogEntry) {
	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// recentLogs returns up to n of the newest entries, oldest first
func (s *Server) recentLogs(n int) []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	if n <= 0 || n > len(s.logs) {
		n = len(s.logs)
	}
	out := make([]LogEntry, n)
	copy(out, s.logs[len(s.logs)-n:])
	return out
}
