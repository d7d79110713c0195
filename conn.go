package epaper

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/BeatGlow/epaper/conn"
)

// Bus transfers bytes to the controller. Each Write is one transaction; the driver never
// changes the data/command mode while a Write is in progress.
type Bus interface {
	Write(p []byte) (n int, err error)
}

// Mode is the state of the data/command select line.
type Mode uint8

// Modes.
const (
	CommandMode Mode = iota
	DataMode
)

func (m Mode) String() string {
	if m == DataMode {
		return "data"
	}
	return "command"
}

// Lines are the discrete control lines of the controller.
type Lines interface {
	// Reset sets the (active low) reset line to the provided level.
	Reset(gpio.Level) error

	// SetMode selects whether the following bus transfer carries a command or data.
	SetMode(Mode) error

	// Busy reports if the controller is processing. It never blocks.
	Busy() bool
}

// Delay pauses the caller.
type Delay interface {
	Sleep(time.Duration)
}

// DelayFunc adapts a function to the Delay interface.
type DelayFunc func(time.Duration)

// Sleep calls f(d).
func (f DelayFunc) Sleep(d time.Duration) { f(d) }

// SystemDelay sleeps the calling goroutine, which lets the scheduler run other goroutines while
// the driver waits for the controller.
var SystemDelay Delay = DelayFunc(time.Sleep)

// Conn errors.
var (
	ErrResetPin = errors.New("epaper: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("epaper: data/command (DC) GPIO pin is invalid")
	ErrBusyPin  = errors.New("epaper: busy GPIO pin is invalid")
)

// Default pins, matching the Pimoroni Inky pHAT wiring.
const (
	DefaultResetPin = "GPIO27"
	DefaultDCPin    = "GPIO22"
	DefaultBusyPin  = "GPIO17"
)

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Port is the periph.io SPI port name, for example "SPI0.0". Empty selects the first port.
	Port string

	// Speed is the SPI clock.
	Speed physic.Frequency

	// Mode is the SPI mode.
	Mode spi.Mode

	// BatchSize is the largest single transfer.
	BatchSize int

	// Reset, DC and Busy pins. Nil pins are looked up by their default names.
	Reset gpio.PinOut
	DC    gpio.PinOut
	Busy  gpio.PinIn
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Speed:     4 * physic.MegaHertz,
	Mode:      spi.Mode0,
	BatchSize: conn.DefaultBatchSize,
}

// SPIConn drives the controller over SPI with GPIO control lines. It implements Bus and Lines.
type SPIConn struct {
	bus     *conn.SPI
	reset   gpio.PinOut
	dc      gpio.PinOut
	dcLevel gpio.Level
	dcSet   bool
	busy    gpio.PinIn
}

// OpenSPI opens the SPI port and control pins. host.Init must have been called.
func OpenSPI(config *SPIConfig) (*SPIConn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}
	if config.Speed == 0 {
		config.Speed = DefaultSPIConfig.Speed
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}
	if config.Reset == nil {
		config.Reset = gpioreg.ByName(DefaultResetPin)
	}
	if config.DC == nil {
		config.DC = gpioreg.ByName(DefaultDCPin)
	}
	if config.Busy == nil {
		config.Busy = gpioreg.ByName(DefaultBusyPin)
	}
	if err := checkPins(config.Reset, config.DC, config.Busy); err != nil {
		return nil, err
	}

	bus, err := conn.OpenSPI(config.Port, config.Speed, config.Mode)
	if err != nil {
		return nil, err
	}
	bus.SetBatchSize(config.BatchSize)

	c, err := newSPIConn(bus, config.Reset, config.DC, config.Busy)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	return c, nil
}

// NewSPI wraps an already connected SPI device and control pins.
func NewSPI(c spi.Conn, reset, dc gpio.PinOut, busy gpio.PinIn) (*SPIConn, error) {
	if err := checkPins(reset, dc, busy); err != nil {
		return nil, err
	}
	return newSPIConn(conn.NewSPI(c), reset, dc, busy)
}

func checkPins(reset, dc gpio.PinOut, busy gpio.PinIn) error {
	switch {
	case reset == nil || reset == gpio.INVALID:
		return ErrResetPin
	case dc == nil || dc == gpio.INVALID:
		return ErrDCPin
	case busy == nil || busy == gpio.INVALID:
		return ErrBusyPin
	}
	return nil
}

func newSPIConn(bus *conn.SPI, reset, dc gpio.PinOut, busy gpio.PinIn) (*SPIConn, error) {
	if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epaper: busy pin %s: %w", busy, err)
	}
	if err := reset.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("epaper: reset pin %s: %w", reset, err)
	}
	return &SPIConn{
		bus:   bus,
		reset: reset,
		dc:    dc,
		busy:  busy,
	}, nil
}

func (c *SPIConn) String() string {
	return fmt.Sprintf("%s reset=%s dc=%s busy=%s", c.bus, c.reset, c.dc, c.busy)
}

// Close the SPI port. The pins are left as they are.
func (c *SPIConn) Close() error {
	return c.bus.Close()
}

// Write implements Bus.
func (c *SPIConn) Write(p []byte) (int, error) {
	return c.bus.Write(p)
}

// Reset implements Lines.
func (c *SPIConn) Reset(level gpio.Level) error {
	return c.reset.Out(level)
}

// SetMode implements Lines. DC is low for commands and high for data.
func (c *SPIConn) SetMode(mode Mode) error {
	level := gpio.Level(mode == DataMode)
	if c.dcSet && c.dcLevel == level {
		return nil
	}
	if err := c.dc.Out(level); err != nil {
		return err
	}
	c.dcLevel, c.dcSet = level, true
	return nil
}

// Busy implements Lines. The controller holds the busy line high while processing.
func (c *SPIConn) Busy() bool {
	return c.busy.Read() == gpio.High
}

var (
	_ Bus   = (*SPIConn)(nil)
	_ Lines = (*SPIConn)(nil)
)
