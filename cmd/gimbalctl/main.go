// gimbalctl - inspect and tune a running gimbal through its dashboard API
//
// Usage:
//
//	gimbalctl [-addr URL] status
//	gimbalctl [-addr URL] tuning
//	gimbalctl [-addr URL] tune -pan-kp 25 -deadzone 0.04
//	gimbalctl [-addr URL] logs [-n 20]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teslashibe/go-gimbal/internal/httpc"
)

// point is a pixel position
type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// status mirrors the dashboard status; the client stays free of the
// OpenCV-backed packages
type status struct {
	SessionID     string  `json:"session_id"`
	Mode          string  `json:"mode"`
	Locked        bool    `json:"locked"`
	LockCounter   int     `json:"lock_counter"`
	LostCounter   int     `json:"lost_counter"`
	Pan           float64 `json:"pan"`
	Tilt          float64 `json:"tilt"`
	Target        point   `json:"target"`
	HasTarget     bool    `json:"has_target"`
	Cycles        uint64  `json:"cycles"`
	SkippedCycles uint64  `json:"skipped_cycles"`
	LastError     string  `json:"last_error"`
}

// tuningParams mirrors the dashboard tuning body
type tuningParams struct {
	PanKp     float64 `json:"pan_kp,omitempty"`
	PanKd     float64 `json:"pan_kd,omitempty"`
	TiltKp    float64 `json:"tilt_kp,omitempty"`
	TiltKd    float64 `json:"tilt_kd,omitempty"`
	DeadZone  float64 `json:"deadzone,omitempty"`
	ScanSpeed float64 `json:"scan_speed,omitempty"`
}

// logEntry mirrors a dashboard log line
type logEntry struct {
	Time      string            `json:"time"`
	Level     string            `json:"level"`
	Component string            `json:"component"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8181", "Dashboard base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base := strings.TrimRight(*addr, "/")
	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "status":
		err = showStatus(ctx, base)
	case "tuning":
		err = tuning(ctx, base)
	case "tune":
		err = tune(ctx, base, args)
	case "logs":
		err = logs(ctx, base, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gimbalctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gimbalctl [-addr URL] status | tuning | tune [flags] | logs [-n N]")
	flag.PrintDefaults()
}

func showStatus(ctx context.Context, base string) error {
	var s status
	if err := httpc.GetJSON(ctx, base+"/api/status", &s); err != nil {
		return err
	}

	fmt.Printf("mode      %s (locked %v, lock %d, lost %d)\n", s.Mode, s.Locked, s.LockCounter, s.LostCounter)
	fmt.Printf("pose      pan %.1f  tilt %.1f\n", s.Pan, s.Tilt)
	if s.HasTarget {
		fmt.Printf("target    (%d, %d)\n", s.Target.X, s.Target.Y)
	}
	if s.SessionID != "" {
		fmt.Printf("session   %s\n", s.SessionID)
	}
	fmt.Printf("cycles    %d (%d skipped)\n", s.Cycles, s.SkippedCycles)
	if s.LastError != "" {
		fmt.Printf("error     %s\n", s.LastError)
	}
	return nil
}

func tuning(ctx context.Context, base string) error {
	var p tuningParams
	if err := httpc.GetJSON(ctx, base+"/api/tuning", &p); err != nil {
		return err
	}
	return printJSON(p)
}

func tune(ctx context.Context, base string, args []string) error {
	fs := flag.NewFlagSet("tune", flag.ContinueOnError)
	var p tuningParams
	fs.Float64Var(&p.PanKp, "pan-kp", 0, "Pan proportional gain")
	fs.Float64Var(&p.PanKd, "pan-kd", 0, "Pan derivative gain")
	fs.Float64Var(&p.TiltKp, "tilt-kp", 0, "Tilt proportional gain")
	fs.Float64Var(&p.TiltKd, "tilt-kd", 0, "Tilt derivative gain")
	fs.Float64Var(&p.DeadZone, "deadzone", 0, "Dead zone (normalized error)")
	fs.Float64Var(&p.ScanSpeed, "scan-speed", 0, "Scan speed (deg/s)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if p == (tuningParams{}) {
		return fmt.Errorf("tune: set at least one parameter")
	}

	if err := httpc.PostJSON(ctx, base+"/api/tuning", p, nil); err != nil {
		return err
	}
	fmt.Println("queued; applied before the next cycle")
	return nil
}

func logs(ctx context.Context, base string, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	n := fs.Int("n", 20, "Number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var entries []logEntry
	if err := httpc.GetJSON(ctx, fmt.Sprintf("%s/api/logs?limit=%d", base, *n), &entries); err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %-5s", e.Time, e.Level)
		if e.Component != "" {
			line += " [" + e.Component + "]"
		}
		line += " " + e.Message
		for k, v := range e.Fields {
			line += " " + k + "=" + v
		}
		fmt.Println(line)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
