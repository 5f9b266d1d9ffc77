// Package camera owns device selection (front/back facing) and zoom
// against a capture-device surface. It is not a filter: it feeds the
// frame pipeline and must never block it.
package camera

// Config holds the capture parameters applied when a device is
// (re)configured.
type Config struct {
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// BackIndex and FrontIndex are the OS device indices for the two
	// facings. A negative index means that facing is not present.
	BackIndex  int `json:"back_index"`
	FrontIndex int `json:"front_index"`
}

// Zoom is always digital (center crop plus upscale), so the ceiling is
// a quality choice rather than a sensor limit.
const (
	MinZoom     = 1.0
	ZoomCeiling = 5.0
)

// DefaultConfig returns the standard capture configuration.
func DefaultConfig() Config {
	return Config{
		Width:      1280,
		Height:     720,
		Framerate:  30,
		BackIndex:  0,
		FrontIndex: 1,
	}
}

// Validate checks the config values; it returns a list of problems, or
// nil if the config is usable.
func (c *Config) Validate() []string {
	var errors []string
	if c.Width < 160 || c.Width > 7680 {
		errors = append(errors, "width must be between 160 and 7680")
	}
	if c.Height < 120 || c.Height > 4320 {
		errors = append(errors, "height must be between 120 and 4320")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.BackIndex < 0 && c.FrontIndex < 0 {
		errors = append(errors, "at least one of back_index and front_index must be set")
	}
	return errors
}
