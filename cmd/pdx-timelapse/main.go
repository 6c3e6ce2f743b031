// Command pdx-timelapse exports an animated map timelapse from a loaded
// pdx-tools save as an MP4 video.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/clemux/pdx-tools/pkg/adapters/chromemap"
	"github.com/clemux/pdx-tools/pkg/adapters/ggsurface"
	"github.com/clemux/pdx-tools/pkg/adapters/logger"
	"github.com/clemux/pdx-tools/pkg/adapters/mp4mux"
	"github.com/clemux/pdx-tools/pkg/adapters/vpxencoder"
	"github.com/clemux/pdx-tools/pkg/config"
	"github.com/clemux/pdx-tools/pkg/ports"
	"github.com/clemux/pdx-tools/pkg/timelapse"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "pdx-timelapse",
		Usage:   "export an animated map timelapse from a save",
		Version: version,
		Commands: []*cli.Command{
			exportCommand(),
			probeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "walk a date range and encode one frame per step into an MP4",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "url", Usage: "pdx-tools page with a loaded save"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output MP4 file path"},
			&cli.StringFlag{Name: "map-mode", Usage: "map mode (political, religion, ...)"},
			&cli.StringFlag{Name: "tag", Usage: "restrict coloring to one country tag"},
			&cli.StringFlag{Name: "start", Usage: "start date (ISO 8601, default: save start)"},
			&cli.StringFlag{Name: "end", Usage: "end date (ISO 8601, default: save end)"},
			&cli.StringFlag{Name: "interval", Usage: "step interval: year, month, week or day"},
			&cli.IntFlag{Name: "fps", Usage: "output frame rate"},
			&cli.IntFlag{Name: "freeze-frame", Usage: "seconds to hold the final frame"},
			&cli.StringFlag{Name: "ffmpeg", Usage: "path to the ffmpeg binary"},
			&cli.StringFlag{Name: "chrome", Usage: "path to the Chrome binary"},
			&cli.StringFlag{Name: "font", Usage: "TTF font for the overlay"},
			&cli.BoolFlag{Name: "no-headless", Usage: "run the browser visibly"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error or quiet"},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	ctx := c.Context

	session, err := chromemap.Launch(ctx, chromemap.Options{
		URL:        cfg.URL,
		ChromePath: cfg.ChromePath,
		Headless:   cfg.Headless,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	start, end, err := resolveDates(ctx, session, cfg)
	if err != nil {
		return err
	}

	interval, _ := ports.ParseDateInterval(cfg.Interval)
	factory := &vpxencoder.Factory{
		FFmpegPath: cfg.FFmpegPath,
		GopSize:    timelapse.KeyframeInterval,
	}

	tl, err := timelapse.New(ctx, timelapse.Options{
		Renderer: session,
		Engine:   session,
		Encoders: factory,
		NewSurface: func(w, h int) (ports.Surface, error) {
			if cfg.FontPath != "" {
				return ggsurface.NewWithFont(w, h, cfg.FontPath)
			}
			return ggsurface.New(w, h)
		},
		NewMuxer: func(ec ports.EncoderConfig) ports.Muxer { return mp4mux.New(ec) },
		MapPayload: ports.MapRenderPayload{
			MapMode:            cfg.MapMode,
			Tag:                cfg.Tag,
			ShowSecondaryColor: cfg.ShowSecondaryColor,
		},
		Interval:           interval,
		StartDate:          start,
		EndDate:            end,
		FPS:                cfg.FPS,
		FreezeFrameSeconds: cfg.FreezeFrameSeconds,
		Logger:             log,
	})
	if err != nil {
		return err
	}

	log.Info("Exporting timelapse %s to %s", start.Text+".."+end.Text, cfg.OutputPath)

	// A single interrupt requests a clean stop; the frames committed so far
	// stay finalizable. A second interrupt aborts the process.
	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Info("Interrupted, finalizing output...")
		interrupted.Store(true)
		tl.Stop()
		signal.Stop(sigCh)
	}()

	dates := 0
	for {
		date, ok, err := tl.Next(ctx)
		if err != nil {
			// The encoder resource must be released even on the error path;
			// whatever was committed is not worth keeping here.
			tl.Finish()
			return fmt.Errorf("export failed at date %d: %w", dates+1, err)
		}
		if !ok {
			break
		}
		dates++
		log.Debug("Encoded %s", date.Text)
	}

	data, err := tl.Finish()
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if interrupted.Load() {
		log.Info("Export cancelled after %d dates", dates)
	} else {
		log.Info("Export completed: %d dates, %d frames", dates, tl.FramesEncoded())
	}
	log.Info("Output saved to %s", cfg.OutputPath)
	return nil
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "report whether this system can encode a timelapse",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ffmpeg", Usage: "path to the ffmpeg binary"},
		},
		Action: func(c *cli.Context) error {
			factory := &vpxencoder.Factory{FFmpegPath: c.String("ffmpeg")}
			if !timelapse.IsSupported(factory) {
				return cli.Exit(l10n.T("No supported codec on this system"), 1)
			}
			for _, codec := range []string{"vp09.00.10.08", "vp8"} {
				_, supported, err := factory.IsConfigSupported(ports.EncoderConfig{
					Codec: codec, Width: 1920, Height: 1080, Framerate: 30,
					Bitrate: 1_000_000, BitrateMode: "variable",
				})
				if err == nil && supported {
					fmt.Println(l10n.F("ffmpeg found, %s selected", codec))
					break
				}
			}
			return nil
		},
	}
}

// buildConfig layers CLI flags over the YAML config over the defaults.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("url") {
		cfg.URL = c.String("url")
	}
	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("map-mode") {
		cfg.MapMode = c.String("map-mode")
	}
	if c.IsSet("tag") {
		cfg.Tag = c.String("tag")
	}
	if c.IsSet("start") {
		cfg.StartDate = c.String("start")
	}
	if c.IsSet("end") {
		cfg.EndDate = c.String("end")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.String("interval")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Int("fps")
	}
	if c.IsSet("freeze-frame") {
		cfg.FreezeFrameSeconds = c.Int("freeze-frame")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("chrome") {
		cfg.ChromePath = c.String("chrome")
	}
	if c.IsSet("font") {
		cfg.FontPath = c.String("font")
	}
	if c.Bool("no-headless") {
		cfg.Headless = false
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

// resolveDates turns the configured ISO strings into SimDates, defaulting to
// the save's own bounds.
func resolveDates(ctx context.Context, session *chromemap.Session, cfg config.Config) (start, end ports.SimDate, err error) {
	saveStart, saveEnd, err := session.DateRange(ctx)
	if err != nil {
		return start, end, err
	}

	start = saveStart
	if cfg.StartDate != "" {
		if start, err = session.ResolveDate(ctx, cfg.StartDate); err != nil {
			return start, end, err
		}
	}
	end = saveEnd
	if cfg.EndDate != "" {
		if end, err = session.ResolveDate(ctx, cfg.EndDate); err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}
