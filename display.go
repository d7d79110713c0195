// Package epaper contains a driver for SSD1680 based e-paper displays.
//
// The driver talks to the controller through three narrow capabilities: a byte [Bus], the
// discrete control [Lines] (reset, data/command select and busy sense) and a [Delay] service.
// [OpenSPI] provides the bus and lines on top of periph.io; tests and other platforms can supply
// their own.
package epaper

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BeatGlow/epaper/pixel"
)

var debug bool

func init() {
	debug = os.Getenv("EPAPER_DEBUG") != ""
}

// Errors
var (
	ErrBusFailure       = errors.New("epaper: bus failure")
	ErrTimeout          = errors.New("epaper: timeout waiting for controller")
	ErrInvalidState     = errors.New("epaper: invalid state")
	ErrInvalidRegion    = errors.New("epaper: invalid RAM region")
	ErrOutOfBounds      = pixel.ErrOutOfBounds
	ErrUnsupportedColor = pixel.ErrUnsupportedColor
)

// Rotation defines pixel rotation.
type Rotation = pixel.Rotation

// Supported rotations.
const (
	NoRotation = pixel.NoRotation
	Rotate90   = pixel.Rotate90
	Rotate180  = pixel.Rotate180
	Rotate270  = pixel.Rotate270
)

// Color is an e-paper ink.
type Color = pixel.Color

// Supported colors.
const (
	White = pixel.White
	Black = pixel.Black
	Red   = pixel.Red
)

// UpdateMode selects the refresh waveform.
type UpdateMode uint8

// Update modes.
const (
	// Full drives the complete waveform, clearing ghosting.
	Full UpdateMode = iota

	// Partial reuses the previous image state, faster with more artifacts.
	Partial
)

func (m UpdateMode) String() string {
	if m == Partial {
		return "partial"
	}
	return "full"
}

// State of the display controller.
type State uint8

// States.
const (
	Uninitialized State = iota
	Ready
	Updating
	Sleeping
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Updating:
		return "updating"
	case Sleeping:
		return "sleeping"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Config is the display configuration.
type Config struct {
	// Width of the panel in pixels, in its native orientation (source outputs).
	Width int

	// Height of the panel in pixels, in its native orientation (gate outputs).
	Height int

	// Rotation of the display.
	Rotation Rotation

	// Planes is 1 for black/white panels or 2 for panels with a red plane.
	Planes int

	// BusyTimeout is the longest the driver waits for the busy line to clear.
	BusyTimeout time.Duration

	// BusyPoll is the busy line polling interval.
	BusyPoll time.Duration

	// ResetHold is the hold time for each reset line level.
	ResetHold time.Duration

	// Waveform optionally overrides the controller's built-in waveform settings.
	Waveform *Waveform
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Width:       128,
	Height:      296,
	Planes:      1,
	BusyTimeout: 5 * time.Second,
	BusyPoll:    10 * time.Millisecond,
	ResetHold:   10 * time.Millisecond,
}

// normalize fills zero values from DefaultConfig and validates the geometry.
func (c *Config) normalize() error {
	if c.Width == 0 && c.Height == 0 {
		c.Width, c.Height = DefaultConfig.Width, DefaultConfig.Height
	}
	if c.Planes == 0 {
		c.Planes = DefaultConfig.Planes
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = DefaultConfig.BusyTimeout
	}
	if c.BusyPoll <= 0 {
		c.BusyPoll = DefaultConfig.BusyPoll
	}
	if c.ResetHold <= 0 {
		c.ResetHold = DefaultConfig.ResetHold
	}

	switch {
	case c.Width <= 0 || c.Width > MaxSourceOutputs:
		return fmt.Errorf("epaper: width %d outside 1..%d", c.Width, MaxSourceOutputs)
	case c.Height <= 0 || c.Height > MaxGateOutputs:
		return fmt.Errorf("epaper: height %d outside 1..%d", c.Height, MaxGateOutputs)
	case c.BusyPoll > c.BusyTimeout:
		return fmt.Errorf("epaper: busy poll interval %s exceeds timeout %s", c.BusyPoll, c.BusyTimeout)
	case c.Planes != 1 && c.Planes != 2:
		return fmt.Errorf("epaper: %d planes, expected 1 or 2", c.Planes)
	case c.Rotation > Rotate270:
		return fmt.Errorf("epaper: invalid rotation %d", c.Rotation)
	}
	if c.Waveform != nil {
		return c.Waveform.validate()
	}
	return nil
}
