// Package config provides configuration helpers for go-wildeye commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment is silent.
const (
	DefaultPort      = "8600"
	DefaultOutputDir = "recordings"
	DefaultMode      = "dichromat"
)

// Port returns the control-server port from WILDEYE_PORT.
func Port() string {
	if p := os.Getenv("WILDEYE_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// OutputDir returns where recordings and still captures land, from
// WILDEYE_OUTPUT_DIR.
func OutputDir() string {
	if d := os.Getenv("WILDEYE_OUTPUT_DIR"); d != "" {
		return d
	}
	return DefaultOutputDir
}

// LogLevel returns the logging level from WILDEYE_LOG_LEVEL.
func LogLevel() string {
	if l := os.Getenv("WILDEYE_LOG_LEVEL"); l != "" {
		return l
	}
	return "info"
}

// CameraIndex returns the device index for the given env var, falling
// back to def when unset or unparsable.
func CameraIndex(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Mode returns the startup vision mode name from WILDEYE_MODE.
func Mode() string {
	if m := os.Getenv("WILDEYE_MODE"); m != "" {
		return m
	}
	return DefaultMode
}
