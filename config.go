package curvetext

import (
	"github.com/chewxy/math32"
)

// Config holds coverage evaluation parameters.
// Configuration is passed explicitly into the Compositor at construction;
// there is no process-wide mutable rendering state.
type Config struct {
	// WindowSize is the anti-aliasing window multiplier in pixels. Edges
	// are resolved with a linear coverage ramp this many pixel footprints
	// wide. Smaller values give sharper edges, larger values softer ones.
	// Must be positive. Default: 1.0
	WindowSize float32

	// Supersample enables the rotated refinement pass: curves are evaluated
	// a second time in a frame rotated 90 degrees, catching near-horizontal
	// and near-vertical edges that a single axis under-samples. Roughly
	// doubles per-pixel cost. Default: true
	Supersample bool
}

// DefaultConfig returns the default coverage configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:  1.0,
		Supersample: true,
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if math32.IsNaN(c.WindowSize) || math32.IsInf(c.WindowSize, 0) {
		return &ConfigError{Field: "WindowSize", Reason: "must be finite"}
	}
	if c.WindowSize <= 0 {
		return &ConfigError{Field: "WindowSize", Reason: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "curvetext: invalid config." + e.Field + ": " + e.Reason
}
