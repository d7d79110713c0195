package epaper

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/BeatGlow/epaper/pixel"
)

func testCompareCommands(t *testing.T, want, got []Command) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d commands, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Op != want[i].Op || !bytes.Equal(got[i].Data, want[i].Data) {
			t.Errorf("command %d is %s, expected %s", i, got[i], want[i])
		}
	}
}

func TestInitSequence(t *testing.T) {
	want := []Command{
		{0x01, []byte{0x27, 0x01, 0x00}},
		{0x11, []byte{0x03}},
		{0x44, []byte{0x00, 0x0f}},
		{0x45, []byte{0x00, 0x00, 0x27, 0x01}},
		{0x3c, []byte{0x05}},
		{0x18, []byte{0x80}},
		{0x21, []byte{0x80, 0x80}},
		{0x4e, []byte{0x00}},
		{0x4f, []byte{0x00, 0x00}},
	}
	testCompareCommands(t, want, InitSequence(128, 296, nil))
}

func TestInitSequenceRounding(t *testing.T) {
	cmds := InitSequence(122, 250, nil)
	if v := cmds[2].Data; !bytes.Equal(v, []byte{0x00, 0x0f}) {
		t.Errorf("expected X range 00..0f for 122 columns, got % x", v)
	}
	if v := cmds[0].Data; !bytes.Equal(v, []byte{0xf9, 0x00, 0x00}) {
		t.Errorf("expected driver output 249 rows, got % x", v)
	}
}

func TestInitSequenceWaveform(t *testing.T) {
	lut := make([]byte, 70)
	for i := range lut {
		lut[i] = byte(i)
	}
	w := &Waveform{
		GateVoltage:     0x17,
		SourceVoltage:   []byte{0x41, 0xa8, 0x32},
		VCOM:            0x50,
		DummyLinePeriod: 0x2c,
		GateLineWidth:   0x0b,
		LUT:             lut,
	}
	if err := w.validate(); err != nil {
		t.Fatal(err)
	}
	cmds := InitSequence(128, 296, w)
	want := []byte{0x03, 0x04, 0x2c, 0x3a, 0x3b, 0x32}
	tail := cmds[len(cmds)-len(want):]
	for i, op := range want {
		if tail[i].Op != op {
			t.Errorf("waveform command %d is %#02x, expected %#02x", i, tail[i].Op, op)
		}
	}
	if v := tail[len(tail)-1].Data; !bytes.Equal(v, lut) {
		t.Error("LUT payload differs")
	}

	if cmds := InitSequence(128, 296, &Waveform{VCOM: 0x36}); len(cmds) != 10 {
		t.Errorf("expected only the VCOM command to be added, got %d commands", len(cmds))
	}
}

func TestWaveformValidate(t *testing.T) {
	tests := []struct {
		Name     string
		Waveform Waveform
		Valid    bool
	}{
		{"empty", Waveform{}, true},
		{"source-short", Waveform{SourceVoltage: []byte{0x41}}, false},
		{"dummy-line", Waveform{DummyLinePeriod: 0x80}, false},
		{"dummy-line-max", Waveform{DummyLinePeriod: 0x7f}, true},
		{"lut-short", Waveform{LUT: make([]byte, 30)}, false},
		{"lut", Waveform{LUT: make([]byte, 70)}, true},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			err := test.Waveform.validate()
			if test.Valid && err != nil {
				it.Errorf("expected valid, got %v", err)
			} else if !test.Valid && err == nil {
				it.Error("expected an error")
			}
		})
	}
}

func TestRAMWindow(t *testing.T) {
	size := image.Pt(128, 296)
	tests := []struct {
		Name           string
		X0, Y0, X1, Y1 int
		Want           []Command
	}{
		{"full", 0, 0, 127, 295, []Command{
			{0x44, []byte{0x00, 0x0f}},
			{0x45, []byte{0x00, 0x00, 0x27, 0x01}},
			{0x4e, []byte{0x00}},
			{0x4f, []byte{0x00, 0x00}},
		}},
		{"partial", 17, 260, 40, 270, []Command{
			{0x44, []byte{0x02, 0x05}},
			{0x45, []byte{0x04, 0x01, 0x0e, 0x01}},
			{0x4e, []byte{0x02}},
			{0x4f, []byte{0x04, 0x01}},
		}},
		{"pixel", 5, 5, 5, 5, []Command{
			{0x44, []byte{0x00, 0x00}},
			{0x45, []byte{0x05, 0x00, 0x05, 0x00}},
			{0x4e, []byte{0x00}},
			{0x4f, []byte{0x05, 0x00}},
		}},
		{"negative", -1, 0, 10, 10, nil},
		{"x-swapped", 10, 0, 9, 10, nil},
		{"y-swapped", 0, 10, 9, 9, nil},
		{"x-outside", 0, 0, 128, 10, nil},
		{"y-outside", 0, 0, 10, 296, nil},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			cmds, err := RAMWindow(test.X0, test.Y0, test.X1, test.Y1, size)
			if test.Want == nil {
				if !errors.Is(err, ErrInvalidRegion) {
					it.Fatalf("expected ErrInvalidRegion, got %v", err)
				}
				if cmds != nil {
					it.Errorf("expected no commands, got %v", cmds)
				}
				return
			}
			if err != nil {
				it.Fatal(err)
			}
			testCompareCommands(it, test.Want, cmds)
		})
	}
}

func TestWriteRAM(t *testing.T) {
	data := []byte{0xaa, 0x55}
	if v := WriteRAM(pixel.BlackPlane, data); v.Op != 0x24 || !bytes.Equal(v.Data, data) {
		t.Errorf("black plane: got %s", v)
	}
	if v := WriteRAM(pixel.RedPlane, data); v.Op != 0x26 || !bytes.Equal(v.Data, data) {
		t.Errorf("red plane: got %s", v)
	}
}

func TestTriggerUpdate(t *testing.T) {
	testCompareCommands(t, []Command{{0x22, []byte{0xf7}}, {0x20, nil}}, TriggerUpdate(Full))
	testCompareCommands(t, []Command{{0x22, []byte{0xff}}, {0x20, nil}}, TriggerUpdate(Partial))
	testCompareCommands(t, []Command{{0x22, []byte{0xc7}}, {0x20, nil}}, TriggerUpdateLUT(Full))
	testCompareCommands(t, []Command{{0x22, []byte{0xcf}}, {0x20, nil}}, TriggerUpdateLUT(Partial))
}

func TestDeepSleep(t *testing.T) {
	testCompareCommands(t, []Command{{0x10, []byte{0x01}}}, DeepSleep(DeepSleepRetainRAM))
	testCompareCommands(t, []Command{{0x10, []byte{0x03}}}, DeepSleep(DeepSleepDiscardRAM))
}

func TestWriteTemperature(t *testing.T) {
	tests := []struct {
		Celsius float64
		Want    []byte
	}{
		{25, []byte{0x19, 0x00}},
		{25.5, []byte{0x19, 0x80}},
		{0, []byte{0x00, 0x00}},
		{-10, []byte{0xf6, 0x00}},
	}
	for _, test := range tests {
		cmds, err := WriteTemperature(test.Celsius)
		if err != nil {
			t.Fatalf("%g °C: %v", test.Celsius, err)
		}
		testCompareCommands(t, []Command{{0x18, []byte{0x48}}, {0x1a, test.Want}}, cmds)
	}
	if _, err := WriteTemperature(200); err == nil {
		t.Error("expected an error for 200 °C")
	}
}
