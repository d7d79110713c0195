package epaper

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/BeatGlow/epaper/pixel"
)

// Controller limits.
const (
	MaxSourceOutputs = 176 // columns
	MaxGateOutputs   = 296 // rows
)

const (
	driverOutputControl   = 0x01
	gateDrivingVoltage    = 0x03
	sourceDrivingVoltage  = 0x04
	deepSleepMode         = 0x10
	dataEntryMode         = 0x11
	softReset             = 0x12
	temperatureSensor     = 0x18
	writeTemperature      = 0x1A
	masterActivation      = 0x20
	displayUpdateControl1 = 0x21
	displayUpdateControl2 = 0x22
	writeBlackRAM         = 0x24
	writeRedRAM           = 0x26
	writeVCOM             = 0x2C
	writeLUT              = 0x32
	dummyLinePeriod       = 0x3A
	gateLineWidth         = 0x3B
	borderWaveform        = 0x3C
	setRAMXRange          = 0x44
	setRAMYRange          = 0x45
	setRAMXCounter        = 0x4E
	setRAMYCounter        = 0x4F
)

const (
	dataEntryIncXIncY  = 0x03 // X increment, Y increment, X direction first
	borderFollowLUT    = 0x05
	sensorInternal     = 0x80
	sensorExternal     = 0x48
	blackRAMInvert     = 0x80
	sourceS8ToS167     = 0x80
	updateFull         = 0xF7
	updatePartial      = 0xFF // display mode 2
	updateLoadOTP      = 0x30 // load temperature and LUT from OTP
	lutSize            = 70
	maxDummyLinePeriod = 0x7F
)

// DeepSleepMode selects what the controller keeps while asleep.
type DeepSleepMode byte

// Deep sleep modes.
const (
	DeepSleepNormal     DeepSleepMode = 0x00 // not sleeping
	DeepSleepRetainRAM  DeepSleepMode = 0x01
	DeepSleepDiscardRAM DeepSleepMode = 0x03
)

// Command is a controller opcode with its parameters.
type Command struct {
	Op   byte
	Data []byte
}

func (c Command) String() string {
	if len(c.Data) == 0 {
		return fmt.Sprintf("%#02x", c.Op)
	}
	if len(c.Data) > 8 {
		return fmt.Sprintf("%#02x [% x ...] (%d bytes)", c.Op, c.Data[:8], len(c.Data))
	}
	return fmt.Sprintf("%#02x [% x]", c.Op, c.Data)
}

// Waveform overrides the controller's built-in waveform settings. Zero fields are left at the
// controller defaults.
type Waveform struct {
	// GateVoltage is the VGH level (command 0x03).
	GateVoltage byte

	// SourceVoltage are the VSH1, VSH2 and VSL levels (command 0x04).
	SourceVoltage []byte

	// VCOM is the VCOM register value (command 0x2C).
	VCOM byte

	// DummyLinePeriod in line periods, at most 127 (command 0x3A).
	DummyLinePeriod byte

	// GateLineWidth is the gate line width code (command 0x3B).
	GateLineWidth byte

	// LUT is a 70 byte waveform lookup table (command 0x32).
	LUT []byte
}

func (w *Waveform) validate() error {
	switch {
	case len(w.SourceVoltage) != 0 && len(w.SourceVoltage) != 3:
		return fmt.Errorf("epaper: source voltage needs 3 bytes, got %d", len(w.SourceVoltage))
	case w.DummyLinePeriod > maxDummyLinePeriod:
		return fmt.Errorf("epaper: dummy line period %d exceeds %d", w.DummyLinePeriod, maxDummyLinePeriod)
	case len(w.LUT) != 0 && len(w.LUT) != lutSize:
		return fmt.Errorf("epaper: LUT needs %d bytes, got %d", lutSize, len(w.LUT))
	}
	return nil
}

func (w *Waveform) commands() (cmds []Command) {
	if w.GateVoltage != 0 {
		cmds = append(cmds, Command{gateDrivingVoltage, []byte{w.GateVoltage}})
	}
	if len(w.SourceVoltage) > 0 {
		cmds = append(cmds, Command{sourceDrivingVoltage, w.SourceVoltage})
	}
	if w.VCOM != 0 {
		cmds = append(cmds, Command{writeVCOM, []byte{w.VCOM}})
	}
	if w.DummyLinePeriod != 0 {
		cmds = append(cmds, Command{dummyLinePeriod, []byte{w.DummyLinePeriod}})
	}
	if w.GateLineWidth != 0 {
		cmds = append(cmds, Command{gateLineWidth, []byte{w.GateLineWidth}})
	}
	if len(w.LUT) > 0 {
		cmds = append(cmds, Command{writeLUT, w.LUT})
	}
	return
}

// InitSequence returns the boot sequence for a width×height panel (native orientation). The
// order is fixed by the controller's operating sequence and must not be changed.
func InitSequence(width, height int, waveform *Waveform) []Command {
	var (
		lastRow = uint16(height - 1)
		lastCol = byte((width+7)/8 - 1)
	)
	cmds := []Command{
		{driverOutputControl, []byte{byte(lastRow), byte(lastRow >> 8), 0x00}},
		{dataEntryMode, []byte{dataEntryIncXIncY}},
		{setRAMXRange, []byte{0x00, lastCol}},
		{setRAMYRange, []byte{0x00, 0x00, byte(lastRow), byte(lastRow >> 8)}},
		{borderWaveform, []byte{borderFollowLUT}},
		{temperatureSensor, []byte{sensorInternal}},
		{displayUpdateControl1, []byte{blackRAMInvert, sourceS8ToS167}},
		{setRAMXCounter, []byte{0x00}},
		{setRAMYCounter, []byte{0x00, 0x00}},
	}
	if waveform != nil {
		cmds = append(cmds, waveform.commands()...)
	}
	return cmds
}

// RAMWindow returns the commands that restrict RAM writes to the inclusive physical rectangle
// (x0,y0)-(x1,y1) and point the address counters at its first byte. The X range is addressed
// in whole bytes.
func RAMWindow(x0, y0, x1, y1 int, size image.Point) ([]Command, error) {
	if x0 < 0 || y0 < 0 || x0 > x1 || y0 > y1 || x1 >= size.X || y1 >= size.Y {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) on a %s panel", ErrInvalidRegion, x0, y0, x1, y1, size)
	}
	var (
		xs, xe = byte(x0 / 8), byte(x1 / 8)
		ys, ye = uint16(y0), uint16(y1)
	)
	return []Command{
		{setRAMXRange, []byte{xs, xe}},
		{setRAMYRange, []byte{byte(ys), byte(ys >> 8), byte(ye), byte(ye >> 8)}},
		{setRAMXCounter, []byte{xs}},
		{setRAMYCounter, []byte{byte(ys), byte(ys >> 8)}},
	}, nil
}

// WriteRAM wraps the contents of one plane in a RAM write command.
func WriteRAM(plane pixel.Plane, data []byte) Command {
	if plane == pixel.RedPlane {
		return Command{writeRedRAM, data}
	}
	return Command{writeBlackRAM, data}
}

// TriggerUpdate returns the commands that start a refresh with the given waveform mode. The
// controller loads the temperature and the matching LUT from OTP before driving the panel.
func TriggerUpdate(mode UpdateMode) []Command {
	return triggerUpdate(mode, false)
}

// TriggerUpdateLUT is TriggerUpdate for a controller running a LUT written with command 0x32.
// Nothing is loaded from OTP, so the written LUT stays in effect.
func TriggerUpdateLUT(mode UpdateMode) []Command {
	return triggerUpdate(mode, true)
}

func triggerUpdate(mode UpdateMode, customLUT bool) []Command {
	option := byte(updateFull)
	if mode == Partial {
		option = updatePartial
	}
	if customLUT {
		option &^= updateLoadOTP
	}
	return []Command{
		{displayUpdateControl2, []byte{option}},
		{masterActivation, nil},
	}
}

// DeepSleep returns the command that puts the controller to sleep. Only a hardware reset wakes
// it again.
func DeepSleep(mode DeepSleepMode) []Command {
	return []Command{{deepSleepMode, []byte{byte(mode)}}}
}

// SoftReset resets the controller registers to their defaults.
func SoftReset() Command {
	return Command{softReset, nil}
}

var errTemperatureRange = errors.New("epaper: temperature outside -128..127 °C")

// WriteTemperature returns the commands that select the external temperature register and
// load it with celsius, in the controller's 12-bit, 1/16 °C format.
func WriteTemperature(celsius float64) ([]Command, error) {
	if math.IsNaN(celsius) || celsius < -128 || celsius > 127.9375 {
		return nil, errTemperatureRange
	}
	v := uint16(int16(math.Round(celsius*16))) & 0x0fff
	return []Command{
		{temperatureSensor, []byte{sensorExternal}},
		{writeTemperature, []byte{byte(v >> 4), byte(v << 4)}},
	}, nil
}
