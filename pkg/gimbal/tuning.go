package gimbal

import (
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// TuningParams holds the real-time adjustable control parameters.
// These can be modified via the tuning API without restarting.
type TuningParams struct {
	// PD Controller
	PanKp  float64 `json:"pan_kp"`  // Pan proportional gain
	PanKd  float64 `json:"pan_kd"`  // Pan derivative gain
	TiltKp float64 `json:"tilt_kp"` // Tilt proportional gain
	TiltKd float64 `json:"tilt_kd"` // Tilt derivative gain

	DeadZone float64 `json:"deadzone"` // Dead zone (normalized error)

	// Scan sweep
	ScanSpeed float64 `json:"scan_speed"` // Degrees per second
}

func tuningFromConfig(cfg tracking.Config) TuningParams {
	return TuningParams{
		PanKp:     cfg.Pan.Kp,
		PanKd:     cfg.Pan.Kd,
		TiltKp:    cfg.Tilt.Kp,
		TiltKd:    cfg.Tilt.Kd,
		DeadZone:  cfg.DeadZone,
		ScanSpeed: cfg.ScanSpeed,
	}
}

// Tuning returns the parameters currently in effect
func (a *App) Tuning() TuningParams {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// SetTuning queues new parameters for the control loop. It never blocks; if an
// update is already pending it is replaced. Only positive values are applied.
func (a *App) SetTuning(params TuningParams) {
	for {
		select {
		case a.tuning <- params:
			return
		default:
		}

		// Drop the stale pending update and retry
		select {
		case <-a.tuning:
		default:
		}
	}
}

// applyTuning applies a pending update between cycles
func (a *App) applyTuning() {
	var params TuningParams
	select {
	case params = <-a.tuning:
	default:
		return
	}

	loop := a.controller.Loop()

	pan := loop.PanController().Gains()
	if params.PanKp > 0 {
		pan.Kp = params.PanKp
	}
	if params.PanKd > 0 {
		pan.Kd = params.PanKd
	}
	loop.PanController().SetGains(pan)

	tilt := loop.TiltController().Gains()
	if params.TiltKp > 0 {
		tilt.Kp = params.TiltKp
	}
	if params.TiltKd > 0 {
		tilt.Kd = params.TiltKd
	}
	loop.TiltController().SetGains(tilt)

	deadZone := loop.PanController().DeadZone
	if params.DeadZone > 0 {
		deadZone = params.DeadZone
		loop.SetDeadZone(deadZone)
	}

	scan := a.controller.Scan()
	if params.ScanSpeed > 0 {
		scan.Speed = params.ScanSpeed
	}

	applied := TuningParams{
		PanKp:     pan.Kp,
		PanKd:     pan.Kd,
		TiltKp:    tilt.Kp,
		TiltKd:    tilt.Kd,
		DeadZone:  deadZone,
		ScanSpeed: scan.Speed,
	}

	a.mu.Lock()
	a.current = applied
	a.mu.Unlock()

	a.log.Info("tuning applied",
		"pan_kp", applied.PanKp, "pan_kd", applied.PanKd,
		"tilt_kp", applied.TiltKp, "tilt_kd", applied.TiltKd,
		"deadzone", applied.DeadZone, "scan_speed", applied.ScanSpeed)
}
