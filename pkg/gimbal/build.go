package gimbal

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-gimbal/internal/config"
	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/detection/yolo"
	"github.com/teslashibe/go-gimbal/pkg/servo"
)

// Build validates cfg and constructs the hardware pipeline: YOLO detector,
// servo actuator and camera, in that order. If any step fails the components
// already acquired are released before the error is returned.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	det, err := yolo.New(cfg.Detection)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}

	act, err := servo.New(cfg.PanTilt)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("actuator: %w", err)
	}

	cam, err := camera.Open(ctx, cfg.Camera)
	if err != nil {
		act.Shutdown()
		det.Close()
		return nil, fmt.Errorf("camera: %w", err)
	}

	return New(cfg.TrackingConfig(), cam, det, act), nil
}
