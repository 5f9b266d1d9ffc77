package camera

import (
	"fmt"
	"sync"

	"github.com/kindredlens/go-wildeye/internal/log"
)

// Facing identifies which camera a frame source reads from.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
)

// String returns the wire name of the facing.
func (f Facing) String() string {
	if f == FacingFront {
		return "front"
	}
	return "back"
}

// Opposite returns the other facing.
func (f Facing) Opposite() Facing {
	if f == FacingBack {
		return FacingFront
	}
	return FacingBack
}

// DeviceUnavailableError means the requested facing has no usable
// device; the previous device state is retained.
type DeviceUnavailableError struct {
	Facing Facing
	Err    error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("camera: %s device unavailable: %v", e.Facing, e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error { return e.Err }

// Device is the external capture-device surface the controller
// mutates. Reconfigure must be transactional: on error the device
// keeps serving its previous facing, and the device graph is never
// observed half-configured.
type Device interface {
	Reconfigure(facing Facing) error
	SetZoom(factor float64) error
	MaxZoom() float64
}

// Controller serializes facing switches and zoom changes against one
// device. All methods are safe to call from any goroutine; callers on
// the frame path should invoke SwitchFacing from a worker, not from
// the capture callback itself.
type Controller struct {
	mu     sync.Mutex
	dev    Device
	facing Facing
	zoom   float64
}

// NewController wraps a device currently serving the given facing.
func NewController(dev Device, facing Facing) *Controller {
	return &Controller{
		dev:    dev,
		facing: facing,
		zoom:   MinZoom,
	}
}

// Facing returns the facing currently served.
func (c *Controller) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// Zoom returns the zoom factor currently applied.
func (c *Controller) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// SwitchFacing reconfigures the device to the opposite facing and
// resets zoom to 1.0. If the target device is unavailable the previous
// facing is retained and the error is returned; callers on the frame
// path treat that as a silent failure.
func (c *Controller) SwitchFacing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.facing.Opposite()
	if err := c.dev.Reconfigure(target); err != nil {
		log.Warn("camera switch failed, keeping facing", "facing", c.facing.String(), "err", err)
		return &DeviceUnavailableError{Facing: target, Err: err}
	}
	c.facing = target
	c.zoom = MinZoom
	if err := c.dev.SetZoom(MinZoom); err != nil {
		log.Warn("zoom reset failed after switch", "err", err)
	}
	log.Info("camera switched", "facing", c.facing.String())
	return nil
}

// ApplyZoom clamps the requested factor to [1.0, min(deviceMax, 5.0)]
// and applies it. Out-of-range requests are clamped, never rejected;
// the applied factor is returned.
func (c *Controller) ApplyZoom(factor float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	max := c.dev.MaxZoom()
	if max > ZoomCeiling {
		max = ZoomCeiling
	}
	if factor < MinZoom {
		factor = MinZoom
	}
	if factor > max {
		factor = max
	}
	if err := c.dev.SetZoom(factor); err != nil {
		log.Warn("zoom apply failed", "factor", factor, "err", err)
		return c.zoom
	}
	c.zoom = factor
	return factor
}
