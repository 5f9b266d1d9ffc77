// Package web exposes the device-control surface and the live preview
// over HTTP and websockets. The actual UI is out of scope; this layer
// only carries requests into the pipeline and frames out of it.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/frame"
	"github.com/kindredlens/go-wildeye/pkg/hub"
)

// previewQuality trades preview sharpness for websocket bandwidth.
const previewQuality = 70

// PipelineState is the snapshot served to clients.
type PipelineState struct {
	Mode      string  `json:"mode"`
	Recording bool    `json:"recording"`
	Facing    string  `json:"facing"`
	Zoom      float64 `json:"zoom"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	LastFile  string  `json:"last_file,omitempty"`
}

// Controls is the set of callbacks the server drives. Each maps to one
// user-facing operation; the server never touches the pipeline
// directly.
type Controls struct {
	SetMode      func(name string) error
	StillCapture func()
	StartRecord  func()
	StopRecord   func()
	SwitchCamera func()
	ApplyZoom    func(factor float64) float64
	Snapshot     func() PipelineState
}

// Server is the control/preview HTTP server.
type Server struct {
	app      *fiber.App
	port     string
	controls Controls

	previewHub *hub.Hub
	statusHub  *hub.Hub

	mu       sync.RWMutex
	lastFile string
}

// NewServer wires routes against the given controls.
func NewServer(port string, controls Controls) *Server {
	s := &Server{
		port:       port,
		controls:   controls,
		previewHub: hub.New("preview"),
		statusHub:  hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "wildeye",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/modes", s.handleListModes)
	api.Post("/mode/:name", s.handleSetMode)
	api.Post("/capture", s.handleCapture)
	api.Post("/record/start", s.handleRecordStart)
	api.Post("/record/stop", s.handleRecordStop)
	api.Post("/camera/switch", s.handleCameraSwitch)
	api.Post("/camera/zoom", s.handleZoom)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and serves until shutdown.
func (s *Server) Start() error {
	log.Info("control server listening", "port", s.port)
	go s.previewHub.Run()
	go s.statusHub.Run()
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("control server stopped", "err", err)
		}
	}()
}

// Publish implements the pipeline preview sink: the frame is JPEG
// encoded and broadcast; clients that lag are dropped, so there is
// never a backlog.
func (s *Server) Publish(f *frame.Frame) {
	if s.previewHub.ClientCount() == 0 {
		return
	}
	data, err := f.ToJPEG(previewQuality)
	if err != nil {
		log.Debug("preview encode failed", "err", err)
		return
	}
	s.previewHub.BroadcastBinary(data)
}

// NoteRecordingFinished records the output path and pushes a status
// update to clients.
func (s *Server) NoteRecordingFinished(path string) {
	s.mu.Lock()
	s.lastFile = path
	s.mu.Unlock()
	s.pushStatus()
}

func (s *Server) snapshot() PipelineState {
	state := PipelineState{}
	if s.controls.Snapshot != nil {
		state = s.controls.Snapshot()
	}
	s.mu.RLock()
	state.LastFile = s.lastFile
	s.mu.RUnlock()
	return state
}

func (s *Server) pushStatus() {
	s.statusHub.BroadcastJSON(s.snapshot())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
