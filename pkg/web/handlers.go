package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-gimbal/pkg/gimbal"
	"github.com/teslashibe/go-gimbal/pkg/hub"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the last published status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	status, ok := s.Status()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "control loop has not run yet",
		})
	}
	return c.JSON(status)
}

func (s *Server) currentTuner() Tuner {
	s.tunerMu.RLock()
	defer s.tunerMu.RUnlock()
	return s.tuner
}

// handleGetTuning returns the parameters in effect
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	tuner := s.currentTuner()
	if tuner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "tuning not available",
		})
	}
	return c.JSON(tuner.Tuning())
}

// handleSetTuning queues new parameters. Zero fields are left unchanged.
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	tuner := s.currentTuner()
	if tuner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "tuning not available",
		})
	}

	var params gimbal.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}
	if params.PanKp < 0 || params.PanKd < 0 || params.TiltKp < 0 || params.TiltKd < 0 ||
		params.DeadZone < 0 || params.ScanSpeed < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tuning values must not be negative",
		})
	}

	tuner.SetTuning(params)
	s.log.Info("tuning queued", "params", params)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued": params,
	})
}

// handleGetLogs returns recent log entries, ?limit=N for the newest N
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	return c.JSON(s.recentLogs(c.QueryInt("limit", 0)))
}

// handleStatusWS sends the current status, then every update
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var initial []hub.Message
	if status, ok := s.Status(); ok {
		if msg, err := hub.JSON(status); err == nil {
			initial = append(initial, msg)
		}
	}
	hub.NewClient(s.statusHub, c, initial...).Run()
}

// handleLogsWS sends the log backlog, then live entries
func (s *Server) handleLogsWS(c *websocket.Conn) {
	logs := s.recentLogs(100)
	initial := make([]hub.Message, 0, len(logs))
	for _, entry := range logs {
		if msg, err := hub.JSON(entry); err == nil {
			initial = append(initial, msg)
		}
	}
	hub.NewClient(s.logHub, c, initial...).Run()
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
