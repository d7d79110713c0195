package epaper

import (
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/epaper/pixel"
)

// Display is an SSD1680 e-paper display.
//
// A Display is not safe for concurrent use. Init and Update block until the controller releases
// its busy line.
type Display struct {
	bus    Bus
	lines  Lines
	delay  Delay
	config Config
	fb     *pixel.Framebuffer
	state  State
}

// New returns a display in the Uninitialized state. A nil config uses DefaultConfig.
func New(bus Bus, lines Lines, delay Delay, config *Config) (*Display, error) {
	if bus == nil || lines == nil {
		return nil, fmt.Errorf("epaper: bus and control lines are required")
	}
	if delay == nil {
		delay = SystemDelay
	}

	d := &Display{
		bus:   bus,
		lines: lines,
		delay: delay,
	}
	if config == nil {
		d.config = DefaultConfig
	} else {
		d.config = *config
	}
	if err := d.config.normalize(); err != nil {
		return nil, err
	}
	d.fb = pixel.NewFramebuffer(d.config.Width, d.config.Height, d.config.Rotation, d.config.Planes)
	return d, nil
}

func (d *Display) String() string {
	kind := "B/W"
	if d.config.Planes > 1 {
		kind = "B/W/R"
	}
	return fmt.Sprintf("SSD1680 %s e-paper %dx%d", kind, d.config.Width, d.config.Height)
}

// State returns the controller state.
func (d *Display) State() State {
	return d.state
}

// Bounds is the logical display bounding box, after rotation.
func (d *Display) Bounds() image.Rectangle {
	return d.fb.Bounds()
}

// Framebuffer returns the pixel planes owned by the display.
func (d *Display) Framebuffer() *pixel.Framebuffer {
	return d.fb
}

// SetPixel sets the pixel at (x, y). Coordinates outside Bounds return ErrOutOfBounds.
func (d *Display) SetPixel(x, y int, c Color) error {
	return d.fb.SetPixel(x, y, c)
}

// Pixel returns the color at (x, y).
func (d *Display) Pixel(x, y int) (Color, error) {
	return d.fb.Pixel(x, y)
}

// Clear sets all pixels in the framebuffer to c. The panel is not refreshed.
func (d *Display) Clear(c Color) error {
	return d.fb.Clear(c)
}

func (d *Display) setState(s State) {
	if debug && d.state != s {
		log.Printf("epaper: %s -> %s", d.state, s)
	}
	d.state = s
}

func (d *Display) send(cmds ...Command) error {
	for _, cmd := range cmds {
		if err := d.lines.SetMode(CommandMode); err != nil {
			return fmt.Errorf("%w: command select for %#02x: %w", ErrBusFailure, cmd.Op, err)
		}
		if _, err := d.bus.Write([]byte{cmd.Op}); err != nil {
			return fmt.Errorf("%w: command %#02x: %w", ErrBusFailure, cmd.Op, err)
		}
		if len(cmd.Data) == 0 {
			continue
		}
		if err := d.lines.SetMode(DataMode); err != nil {
			return fmt.Errorf("%w: data select for %#02x: %w", ErrBusFailure, cmd.Op, err)
		}
		if _, err := d.bus.Write(cmd.Data); err != nil {
			return fmt.Errorf("%w: %d data bytes for %#02x: %w", ErrBusFailure, len(cmd.Data), cmd.Op, err)
		}
	}
	return nil
}

// wait polls the busy line until it clears, for at most BusyTimeout.
func (d *Display) wait() error {
	var (
		polls = int(d.config.BusyTimeout / d.config.BusyPoll)
		i     int
	)
	for ; d.lines.Busy(); i++ {
		if i >= polls {
			return fmt.Errorf("%w after %s", ErrTimeout, d.config.BusyTimeout)
		}
		d.delay.Sleep(d.config.BusyPoll)
	}
	if debug && i > 0 {
		log.Printf("epaper: busy for %s", d.config.BusyPoll*time.Duration(i))
	}
	return nil
}

func (d *Display) hardwareReset() error {
	if err := d.lines.Reset(gpio.Low); err != nil {
		return fmt.Errorf("%w: reset low: %w", ErrBusFailure, err)
	}
	d.delay.Sleep(d.config.ResetHold)
	if err := d.lines.Reset(gpio.High); err != nil {
		return fmt.Errorf("%w: reset high: %w", ErrBusFailure, err)
	}
	d.delay.Sleep(d.config.ResetHold)
	return nil
}

// Init resets the controller and runs the initialization sequence. It is valid in every state
// and is the way to recover after a timeout or a bus failure, or to wake from Sleep.
func (d *Display) Init() (err error) {
	if err = d.hardwareReset(); err != nil {
		return
	}
	// The controller lost its configuration and RAM with the reset.
	d.setState(Uninitialized)
	if err = d.wait(); err != nil {
		return
	}
	if err = d.send(SoftReset()); err != nil {
		return
	}
	if err = d.wait(); err != nil {
		return
	}
	if err = d.send(InitSequence(d.config.Width, d.config.Height, d.config.Waveform)...); err != nil {
		return
	}
	if err = d.wait(); err != nil {
		return
	}
	d.setState(Ready)
	return nil
}

// Update transfers every plane to the controller and refreshes the panel. It returns once the
// refresh has completed.
func (d *Display) Update(mode UpdateMode) error {
	size := d.fb.Size()
	return d.update(mode, image.Rectangle{Max: size})
}

// UpdateRegion transfers the part of the framebuffer covering the logical rectangle r and
// refreshes the panel. The rectangle is widened to whole bytes in the panel's native
// orientation. Red panels receive the same window in both planes.
func (d *Display) UpdateRegion(mode UpdateMode, r image.Rectangle) error {
	if r.Empty() || !r.In(d.fb.Bounds()) {
		return fmt.Errorf("%w: %s outside %s", ErrInvalidRegion, r, d.fb.Bounds())
	}
	return d.update(mode, d.fb.PhysicalRect(r))
}

func (d *Display) update(mode UpdateMode, window image.Rectangle) error {
	if d.state != Ready {
		return fmt.Errorf("%w: update while %s", ErrInvalidState, d.state)
	}

	cmds, err := RAMWindow(window.Min.X, window.Min.Y, window.Max.X-1, window.Max.Y-1, d.fb.Size())
	if err != nil {
		return err
	}
	var (
		full    = window.Eq(image.Rectangle{Max: d.fb.Size()})
		counter = cmds[2:4]
		black   []byte
	)
	for i := 0; i < d.fb.Planes(); i++ {
		plane := pixel.Plane(i)
		data := d.fb.Bytes(plane)
		if !full {
			data = d.fb.Window(plane, window)
		}
		if i > 0 {
			// Rewind the address counters for the next plane.
			cmds = append(cmds, counter...)
		} else {
			black = data
		}
		cmds = append(cmds, WriteRAM(plane, data))
	}
	if err = d.send(cmds...); err != nil {
		return err
	}

	trigger := TriggerUpdate(mode)
	if w := d.config.Waveform; w != nil && len(w.LUT) > 0 {
		trigger = TriggerUpdateLUT(mode)
	}
	if err = d.send(trigger...); err != nil {
		return err
	}

	d.setState(Updating)
	if err = d.wait(); err != nil {
		return err
	}
	d.setState(Ready)

	if d.fb.Planes() == 1 {
		return d.storePrevious(counter, black)
	}
	return nil
}

// storePrevious copies the image now on the glass into the red RAM of a black/white panel.
// Partial refresh (display mode 2) drives each pixel from the red RAM value to the black RAM
// value. The black RAM is inverted on readout and the red RAM is not, so the copy is inverted.
func (d *Display) storePrevious(counter []Command, black []byte) error {
	previous := make([]byte, len(black))
	for i, b := range black {
		previous[i] = ^b
	}
	cmds := append(append([]Command(nil), counter...), WriteRAM(pixel.RedPlane, previous))
	return d.send(cmds...)
}

// SetTemperature loads the controller's temperature register with celsius, for panels without
// a working internal sensor. It takes effect at the next Update.
func (d *Display) SetTemperature(celsius float64) error {
	if d.state != Ready {
		return fmt.Errorf("%w: set temperature while %s", ErrInvalidState, d.state)
	}
	cmds, err := WriteTemperature(celsius)
	if err != nil {
		return err
	}
	return d.send(cmds...)
}

// Sleep puts the controller into deep sleep, retaining its RAM. Init wakes it.
func (d *Display) Sleep() error {
	if d.state != Ready {
		return fmt.Errorf("%w: sleep while %s", ErrInvalidState, d.state)
	}
	if err := d.send(DeepSleep(DeepSleepRetainRAM)...); err != nil {
		return err
	}
	d.setState(Sleeping)
	return nil
}

// Close puts a ready display to sleep and closes the bus, if it can be closed.
func (d *Display) Close() error {
	var err error
	if d.state == Ready {
		err = d.Sleep()
	}
	if c, ok := d.bus.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
