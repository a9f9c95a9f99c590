// Package debug provides global debug logging flags
package debug

import (
	"github.com/teslashibe/go-gimbal/internal/log"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Cycles controls whether a trace line is emitted for every control cycle.
// Use --debug-cycles to enable these very verbose logs
var Cycles bool

// Log emits a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// CycleLog emits a debug record only if cycle tracing is enabled
func CycleLog(msg string, args ...any) {
	if Cycles {
		log.Debug(msg, args...)
	}
}
