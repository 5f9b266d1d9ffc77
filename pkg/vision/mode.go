// Package vision implements the four fixed perception-simulation
// filter chains. Each mode is a hand-tuned, ordered sequence of
// colorspace ops; none of the parameters are runtime-configurable.
package vision

import (
	"fmt"
)

// Mode selects which filter chain runs on the next frame. The set is
// closed; dispatch is an exhaustive switch, not open polymorphism.
type Mode int32

const (
	// ModeDichromat simulates dichromatic (dog-like) color vision.
	ModeDichromat Mode = iota
	// ModeUVPattern simulates UV pattern sensitivity (bee-like).
	ModeUVPattern
	// ModeThermal simulates thermal pit-organ imaging (snake-like).
	ModeThermal
	// ModeAcuity simulates high visual acuity (raptor-like).
	ModeAcuity
)

const modeCount = 4

// Valid reports whether m names one of the four modes.
func (m Mode) Valid() bool {
	return m >= ModeDichromat && m < modeCount
}

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDichromat:
		return "dichromat"
	case ModeUVPattern:
		return "uvpattern"
	case ModeThermal:
		return "thermal"
	case ModeAcuity:
		return "acuity"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Parse resolves a wire name to a Mode.
func Parse(name string) (Mode, error) {
	switch name {
	case "dichromat":
		return ModeDichromat, nil
	case "uvpattern":
		return ModeUVPattern, nil
	case "thermal":
		return ModeThermal, nil
	case "acuity":
		return ModeAcuity, nil
	default:
		return 0, fmt.Errorf("vision: unknown mode %q", name)
	}
}

// Modes returns every mode in order, for iteration in handlers and
// tests.
func Modes() []Mode {
	return []Mode{ModeDichromat, ModeUVPattern, ModeThermal, ModeAcuity}
}
