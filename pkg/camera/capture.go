package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-gimbal/internal/log"
)

// Capture reads frames from a V4L2 device or a video file through gocv
type Capture struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	cfg    Config
	clock  Clock
	closed bool

	log *slog.Logger
}

// Open starts the camera and waits for the sensor to warm up.
// The wait is cut short if ctx is cancelled.
func Open(ctx context.Context, cfg Config) (*Capture, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if cfg.File != "" {
		vc, err = gocv.VideoCaptureFile(cfg.File)
	} else {
		vc, err = gocv.VideoCaptureDevice(cfg.Device)
	}
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	// Always hand the loop the newest frame
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	c := &Capture{
		vc:  vc,
		cfg: cfg,
		log: log.Component("camera"),
	}

	if warmup := cfg.WarmupDuration(); warmup > 0 {
		select {
		case <-time.After(warmup):
		case <-ctx.Done():
			c.Close()
			return nil, ctx.Err()
		}
	}

	c.log.Info("camera started", "width", cfg.Width, "height", cfg.Height, "source", c.source())
	return c, nil
}

// Read captures the next frame. The caller owns the returned frame and must
// Close it.
func (c *Capture) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Frame{}, ErrClosed
	}

	mat := gocv.NewMat()
	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return Frame{}, ErrEmptyFrame
	}

	now := time.Now()
	index, dt := c.clock.Tick(now)

	return Frame{
		Image:     &mat,
		Timestamp: now,
		DT:        dt,
		Index:     index,
		Size:      image.Pt(mat.Cols(), mat.Rows()),
	}, nil
}

// Center returns the configured frame center
func (c *Capture) Center() image.Point {
	return c.cfg.Center()
}

// Resolution returns the configured frame size
func (c *Capture) Resolution() image.Point {
	return image.Pt(c.cfg.Width, c.cfg.Height)
}

// Close stops the camera. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.vc.Close()
	c.log.Info("camera stopped")
	return err
}

func (c *Capture) source() string {
	if c.cfg.File != "" {
		return c.cfg.File
	}
	return fmt.Sprintf("device %d", c.cfg.Device)
}
