// gimbal - pan/tilt tracking gimbal
//
// Sweeps the sky until the detector locks onto a target, then keeps it
// centered with a Kalman-filtered PD loop.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-gimbal/internal/config"
	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/debug"
	"github.com/teslashibe/go-gimbal/pkg/gimbal"
	"github.com/teslashibe/go-gimbal/pkg/web"
)

// options are the command line overrides
type options struct {
	configPath     string
	logLevel       string
	debug          bool
	debugCycles    bool
	webPort        int
	preview        bool
	cameraPreset   string
	trackingPreset string
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		log.Error("gimbal failed", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the YAML configuration")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&opts.debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&opts.debugCycles, "debug-cycles", false, "Log a trace line for every control cycle")
	flag.IntVar(&opts.webPort, "web-port", 0, "Serve the dashboard on this port (overrides config)")
	flag.BoolVar(&opts.preview, "preview", false, "Show annotated frames in a window (q quits)")
	flag.StringVar(&opts.cameraPreset, "camera-preset", "", "Camera preset: default, qvga, 720p, 1080p, wide")
	flag.StringVar(&opts.trackingPreset, "tracking-preset", "", "Tracking preset: default, slow, aggressive")
	flag.Parse()
	return opts
}

// loadConfig reads the configuration file and applies flag overrides.
// A missing file at the default path falls back to the defaults.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if errors.Is(err, fs.ErrNotExist) && opts.configPath == config.DefaultPath {
		log.Warn("config file not found, using defaults", "path", opts.configPath)
		cfg = config.Default()
		err = cfg.ApplyEnv()
	}
	if err != nil {
		return config.Config{}, err
	}

	if opts.cameraPreset != "" {
		if err := cfg.ApplyCameraPreset(opts.cameraPreset); err != nil {
			return config.Config{}, err
		}
	}
	if opts.trackingPreset != "" {
		if err := cfg.ApplyTrackingPreset(opts.trackingPreset); err != nil {
			return config.Config{}, err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.debug || opts.debugCycles {
		cfg.Log.Level = "debug"
	}
	if opts.webPort != 0 {
		cfg.Web.Enabled = true
		cfg.Web.Port = opts.webPort
	}
	return cfg, nil
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log.Init(cfg.Log.Level, cfg.Log.Format)
	debug.Enabled = opts.debug
	debug.Cycles = opts.debugCycles
	log.Info("starting gimbal", cfg.Summary()...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The dashboard log feed must be attached before components create
	// their loggers
	var server *web.Server
	if cfg.Web.Enabled {
		server = web.NewServer(cfg.Web.Port)
		log.Attach(server.LogHandler(log.ParseLevel(cfg.Log.Level)))
	}

	app, err := gimbal.Build(ctx, cfg)
	if err != nil {
		return err
	}

	var observers gimbal.Observers
	if server != nil {
		server.SetTuner(app)
		app.SetStatusSink(server)
		observers = append(observers, server)
		server.StartAsync()
		defer server.Shutdown()
	}
	if opts.preview {
		preview := gimbal.NewPreviewObserver("gimbal", cfg.Camera.Center())
		defer preview.Close()
		observers = append(observers, preview)
	}
	if len(observers) > 0 {
		app.SetFrameObserver(observers)
	}

	if err := app.Run(ctx); err != nil {
		return err
	}
	status := app.Status()
	log.Info("gimbal stopped", "mode", status.Mode, "cycles", status.Cycles, "skipped", status.SkippedCycles)
	return nil
}
