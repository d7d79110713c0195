package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/draw"
	"github.com/BeatGlow/epaper/internal/config"
	"github.com/BeatGlow/epaper/pixel"
)

func main() {
	configFlag := flag.String("config", "epaper.yaml", "Configuration file (created with defaults if missing)")
	widthFlag := flag.Int("width", 0, "Panel width in its native orientation")
	heightFlag := flag.Int("height", 0, "Panel height in its native orientation")
	planesFlag := flag.Int("planes", 0, "Color planes: 1 (black/white) or 2 (black/white/red)")
	rotateFlag := flag.String("rotate", "", "Display rotation")
	spiFlag := flag.String("spi", "", "SPI port name")
	resetPinFlag := flag.String("reset", "", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "", "Data/Command GPIO pin (DC)")
	busyPinFlag := flag.String("busy", "", "Busy GPIO pin")
	fontFlag := flag.String("font", "", "TrueType font file")
	imageFlag := flag.String("image", "", "Image to show below the title")
	partialFlag := flag.Bool("partial", true, "Use partial refresh for scheduled clock updates")
	scheduleFlag := flag.String("schedule", "", "Cron schedule for clock refreshes, e.g. \"* * * * *\"")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Panel.Width = *widthFlag
		case "height":
			cfg.Panel.Height = *heightFlag
		case "planes":
			cfg.Panel.Planes = *planesFlag
		case "rotate":
			cfg.Panel.Rotation = parseRotation(*rotateFlag)
		case "spi":
			cfg.SPI.Port = *spiFlag
		case "reset":
			cfg.SPI.Reset = *resetPinFlag
		case "dc":
			cfg.SPI.DC = *dcPinFlag
		case "busy":
			cfg.SPI.Busy = *busyPinFlag
		case "font":
			cfg.Font = *fontFlag
		case "schedule":
			cfg.Schedule = *scheduleFlag
		}
	})

	displayConfig, err := cfg.Display()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("using rotation: %s\n", displayConfig.Rotation)

	if _, err = host.Init(); err != nil {
		fatal(err)
	}

	conn, err := epaper.OpenSPI(&epaper.SPIConfig{
		Port:  cfg.SPI.Port,
		Speed: physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz,
		Mode:  spi.Mode0,
		Reset: gpioreg.ByName(cfg.SPI.Reset),
		DC:    gpioreg.ByName(cfg.SPI.DC),
		Busy:  gpioreg.ByName(cfg.SPI.Busy),
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("using connection: %s\n", conn)

	output, err := epaper.New(conn, conn, epaper.SystemDelay, displayConfig)
	if err != nil {
		_ = conn.Close()
		fatal(err)
	}
	defer output.Close()
	fmt.Printf("using driver: %s\n", output)

	face := draw.DefaultFace
	if cfg.Font != "" {
		data, err := os.ReadFile(cfg.Font)
		if err != nil {
			fatal(err)
		}
		if face, err = draw.TrueTypeFace(data, cfg.FontSize); err != nil {
			fatal(err)
		}
	}

	var picture image.Image
	if *imageFlag != "" {
		if picture, err = imaging.Open(*imageFlag, imaging.AutoOrientation(true)); err != nil {
			fatal(err)
		}
	}

	if err = output.Init(); err != nil {
		fatal(err)
	}

	var (
		canvas = output.Canvas()
		layout = newLayout(canvas.Bounds(), face)
		start  = time.Now()
	)
	layout.render(canvas, picture, output.Framebuffer().Planes() > 1)
	layout.clock(canvas, start)
	if err = output.Update(epaper.Full); err != nil {
		fatal(err)
	}
	log.Printf("full refresh took %s", time.Since(start).Round(time.Millisecond))

	if cfg.Schedule == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The display is only touched from this goroutine; cron just signals.
	tick := make(chan time.Time, 1)
	scheduler := cron.New()
	if _, err = scheduler.AddFunc(cfg.Schedule, func() {
		select {
		case tick <- time.Now():
		default:
		}
	}); err != nil {
		fatal(fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err))
	}
	scheduler.Start()
	defer scheduler.Stop()
	fmt.Println("hit control-c to stop...")

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case now := <-tick:
			layout.clock(canvas, now)
			if !*partialFlag || n%cfg.FullEvery == 0 {
				err = output.Update(epaper.Full)
			} else {
				err = output.UpdateRegion(epaper.Partial, layout.clockRect)
			}
			if err != nil {
				log.Printf("refresh failed: %v, reinitializing", err)
				if err = output.Init(); err != nil {
					fatal(err)
				}
			}
		}
	}
}

// layout splits the canvas into a title bar, a clock line and a picture area.
type layout struct {
	face      draw.Face
	bounds    image.Rectangle
	titleRect image.Rectangle
	clockRect image.Rectangle
	imageRect image.Rectangle
}

func newLayout(bounds image.Rectangle, face draw.Face) *layout {
	var (
		m    = face.Metrics()
		line = (m.Ascent + m.Descent).Ceil() + 4
		l    = &layout{face: face, bounds: bounds}
	)
	l.titleRect = image.Rect(bounds.Min.X+2, bounds.Min.Y+2, bounds.Max.X-2, bounds.Min.Y+2+line)
	l.clockRect = image.Rect(bounds.Min.X+2, l.titleRect.Max.Y+2, bounds.Max.X-2, l.titleRect.Max.Y+2+line)
	l.imageRect = image.Rect(bounds.Min.X+2, l.clockRect.Max.Y+2, bounds.Max.X-2, bounds.Max.Y-2)
	return l
}

func (l *layout) render(dst draw.Image, picture image.Image, red bool) {
	draw.Box(dst, l.bounds, color.White)
	draw.Rectangle(dst, l.bounds, color.Black)
	draw.RoundedBox(dst, l.titleRect, 4, color.Black)
	draw.CenteredText(dst, l.face, l.titleRect, "SSD1680", color.White)
	if red {
		draw.HorizontalLine(dst, l.clockRect.Min.X, l.clockRect.Max.Y, l.clockRect.Dx(), pixel.Red)
	}
	if picture != nil {
		draw.Picture(dst, l.imageRect, picture, draw.FloydSteinberg)
	}
}

func (l *layout) clock(dst draw.Image, now time.Time) {
	draw.Box(dst, l.clockRect, color.White)
	draw.CenteredText(dst, l.face, l.clockRect, now.Format("2006-01-02 15:04"), color.Black)
}

func parseRotation(value string) int {
	switch value {
	case "", "no", "0":
		return 0
	case "90", "right", "cw":
		return 90
	case "180", "flip":
		return 180
	case "270", "left", "ccw":
		return 270
	default:
		fatal(fmt.Errorf("invalid rotation %q specified", value))
		return 0
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
