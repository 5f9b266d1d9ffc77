package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/kindredlens/go-wildeye/pkg/hub"
	"github.com/kindredlens/go-wildeye/pkg/vision"
)

// ModeInfo describes one vision mode for clients.
type ModeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var availableModes = []ModeInfo{
	{Name: "dichromat", Description: "Dichromatic color response (dog)"},
	{Name: "uvpattern", Description: "UV pattern sensitivity (bee)"},
	{Name: "thermal", Description: "Thermal imaging (snake)"},
	{Name: "acuity", Description: "High visual acuity (bird)"},
}

// handleStatus returns the current pipeline state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.snapshot())
}

// handleListModes returns the available vision modes.
func (s *Server) handleListModes(c *fiber.Ctx) error {
	return c.JSON(availableModes)
}

// handleSetMode switches the vision mode for subsequent frames.
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	name := c.Params("name")
	if _, err := vision.Parse(name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if s.controls.SetMode == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "mode control not configured",
		})
	}
	if err := s.controls.SetMode(name); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.pushStatus()
	return c.JSON(fiber.Map{"mode": name})
}

// handleCapture latches a still-capture request; the next processed
// frame consumes it.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	if s.controls.StillCapture == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "capture not configured",
		})
	}
	s.controls.StillCapture()
	return c.JSON(fiber.Map{"requested": true})
}

// handleRecordStart latches a start-recording request.
func (s *Server) handleRecordStart(c *fiber.Ctx) error {
	if s.controls.StartRecord == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "recording not configured",
		})
	}
	s.controls.StartRecord()
	s.pushStatus()
	return c.JSON(fiber.Map{"requested": true})
}

// handleRecordStop latches a stop-recording request.
func (s *Server) handleRecordStop(c *fiber.Ctx) error {
	if s.controls.StopRecord == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "recording not configured",
		})
	}
	s.controls.StopRecord()
	s.pushStatus()
	return c.JSON(fiber.Map{"requested": true})
}

// handleCameraSwitch latches a facing-switch request.
func (s *Server) handleCameraSwitch(c *fiber.Ctx) error {
	if s.controls.SwitchCamera == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}
	s.controls.SwitchCamera()
	return c.JSON(fiber.Map{"requested": true})
}

// ZoomRequest is the body for zoom changes.
type ZoomRequest struct {
	Factor float64 `json:"factor"`
}

// handleZoom applies a zoom factor; out-of-range values are clamped by
// the controller, never rejected.
func (s *Server) handleZoom(c *fiber.Ctx) error {
	var req ZoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}
	if s.controls.ApplyZoom == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}
	applied := s.controls.ApplyZoom(req.Factor)
	s.pushStatus()
	return c.JSON(fiber.Map{"applied": applied})
}

// handlePreviewWS streams filtered preview frames as binary JPEG
// messages.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	client := hub.NewClient(s.previewHub, c)
	client.Run()
}

// handleStatusWS streams state snapshots; the current state is sent on
// connect.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.snapshot())
	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
