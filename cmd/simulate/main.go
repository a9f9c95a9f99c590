// simulate - run the gimbal control loop against a synthetic target
//
// The scene moves a target through pan/tilt space and projects it into the
// frame using the simulated servo pose, so the real controller closes the
// loop without a camera, a model or servos.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-gimbal/internal/config"
	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/debug"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/gimbal"
	"github.com/teslashibe/go-gimbal/pkg/servo"
	"github.com/teslashibe/go-gimbal/pkg/sim"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
	"github.com/teslashibe/go-gimbal/pkg/web"
)

func main() {
	if err := run(); err != nil {
		log.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

// tracker collects pointing error statistics and stops after a frame budget
type tracker struct {
	scene  *sim.Scene
	act    *servo.Servo
	frames int

	cycles      int
	tracked     int
	sumErr      float64
	maxErr      float64
	transitions int
}

func (t *tracker) Observe(_ camera.Frame, _ []detection.Detection, cycle tracking.Cycle) bool {
	t.cycles++
	if cycle.Transitioned() {
		t.transitions++
	}
	if cycle.Mode == tracking.ModeTrack {
		pan, tilt := t.scene.Target()
		pose := t.act.Pose()
		e := math.Hypot(pan-pose.Pan, tilt-pose.Tilt)
		t.tracked++
		t.sumErr += e
		t.maxErr = math.Max(t.maxErr, e)
	}
	return t.frames <= 0 || t.cycles < t.frames
}

func run() error {
	cfgPath := flag.String("config", "", "Optional YAML configuration for camera, servo and tracking parameters")
	frames := flag.Int("frames", 900, "Number of frames to simulate (0 = until interrupted)")
	realtime := flag.Bool("realtime", false, "Pace frames to the camera frame rate")
	webPort := flag.Int("web-port", 0, "Serve the dashboard on this port")
	preset := flag.String("tracking-preset", "", "Tracking preset: default, slow, aggressive")
	interval := flag.Duration("inference-interval", 0, "Simulated detector inference interval")
	seed := flag.Int64("seed", 1, "Random seed for sensor noise and dropouts")
	noise := flag.Float64("noise", 1.0, "Detection position noise (pixels)")
	dropout := flag.Float64("dropout", 0, "Probability of a missed detection")
	velPan := flag.Float64("vel-pan", 10, "Target pan velocity (deg/s)")
	velTilt := flag.Float64("vel-tilt", 4, "Target tilt velocity (deg/s)")
	appear := flag.Float64("appear", 0, "Scene time when the target appears (s)")
	disappear := flag.Float64("disappear", 0, "Scene time when the target disappears (s, 0 = never)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	debugCycles := flag.Bool("debug-cycles", false, "Log a trace line for every control cycle")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *preset != "" {
		if err := cfg.ApplyTrackingPreset(*preset); err != nil {
			return err
		}
	}
	// The simulation never drives hardware
	cfg.PanTilt.Backend = servo.BackendSim
	if *debugCycles {
		*logLevel = "debug"
	}

	log.Init(*logLevel, cfg.Log.Format)
	debug.Cycles = *debugCycles

	if errs := cfg.PanTilt.Validate(); len(errs) > 0 {
		return fmt.Errorf("pan_tilt: %v", errs)
	}
	tc := cfg.TrackingConfig()
	if errs := tc.Validate(); len(errs) > 0 {
		return fmt.Errorf("tracking: %v", errs)
	}

	act, err := servo.New(cfg.PanTilt)
	if err != nil {
		return err
	}

	scfg := sim.DefaultConfig()
	scfg.Seed = *seed
	scfg.NoisePx = *noise
	scfg.DropoutRate = *dropout
	scfg.VelPan = *velPan
	scfg.VelTilt = *velTilt
	scfg.AppearAt = *appear
	scfg.DisappearAt = *disappear
	scfg.Realtime = *realtime
	scene := sim.NewScene(scfg, cfg.Camera, act)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := gimbal.New(tc, scene.Camera(), scene.Detector(*interval), act)
	stats := &tracker{scene: scene, act: act, frames: *frames}
	observers := gimbal.Observers{stats}

	if *webPort != 0 {
		server := web.NewServer(*webPort)
		server.SetTuner(app)
		app.SetStatusSink(server)
		observers = append(observers, server)
		server.StartAsync()
		defer server.Shutdown()
	}
	app.SetFrameObserver(observers)

	log.Info("simulation starting",
		"frames", *frames,
		"fps", cfg.Camera.Framerate,
		"target_velocity", fmt.Sprintf("%.1f/%.1f deg/s", *velPan, *velTilt),
		"noise_px", *noise,
		"dropout", *dropout)

	start := time.Now()
	if err := app.Run(ctx); err != nil {
		return err
	}

	mean := 0.0
	if stats.tracked > 0 {
		mean = stats.sumErr / float64(stats.tracked)
	}
	status := app.Status()
	log.Info("simulation finished",
		"cycles", stats.cycles,
		"tracked_cycles", stats.tracked,
		"transitions", stats.transitions,
		"mean_error_deg", fmt.Sprintf("%.2f", mean),
		"max_error_deg", fmt.Sprintf("%.2f", stats.maxErr),
		"final_mode", status.Mode,
		"skipped", status.SkippedCycles,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
