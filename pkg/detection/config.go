package detection

import (
	"errors"
	"fmt"
	"time"
)

// Backend identifiers
const (
	BackendCPU   = "cpu"   // OpenCV DNN on the CPU
	BackendCUDA  = "cuda"  // OpenCV DNN with the CUDA backend
	BackendHailo = "hailo" // Hailo NPU (not implemented)
)

// Model output layouts
const (
	FormatYOLOv5 = "yolov5"
	FormatYOLOv8 = "yolov8"
)

var (
	// ErrUnsupportedBackend is returned for a known backend that is not implemented
	ErrUnsupportedBackend = errors.New("detection backend not supported")
	// ErrUnknownBackend is returned for a backend name nobody recognises
	ErrUnknownBackend = errors.New("unknown detection backend")
)

// Config holds detector configuration
type Config struct {
	Backend             string  `yaml:"backend" json:"backend"`
	ModelPath           string  `yaml:"model_path" json:"model_path"`
	ModelFormat         string  `yaml:"model_format" json:"model_format"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	NMSThreshold        float64 `yaml:"nms_threshold" json:"nms_threshold"`
	InputSize           int     `yaml:"input_size" json:"input_size"`
	InferenceInterval   float64 `yaml:"inference_interval" json:"inference_interval"` // seconds
	Classes             []int   `yaml:"classes" json:"classes"`                       // empty = all classes
}

// DefaultConfig returns production defaults for a YOLOv5 model on the CPU
func DefaultConfig() Config {
	return Config{
		Backend:             BackendCPU,
		ModelPath:           "models/drone.onnx",
		ModelFormat:         FormatYOLOv5,
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.45,
		InputSize:           640,
		InferenceInterval:   0.1,
	}
}

// Interval returns the inference interval as a duration
func (c Config) Interval() time.Duration {
	return time.Duration(c.InferenceInterval * float64(time.Second))
}

// CheckBackend reports whether name can be constructed by this build.
func CheckBackend(name string) error {
	switch name {
	case BackendCPU, BackendCUDA:
		return nil
	case BackendHailo:
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, name)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
// The backend is checked separately by CheckBackend.
func (c *Config) Validate() []string {
	var errors []string

	if c.ModelPath == "" {
		errors = append(errors, "model_path is required")
	}
	if c.ModelFormat != FormatYOLOv5 && c.ModelFormat != FormatYOLOv8 {
		errors = append(errors, "model_format must be yolov5 or yolov8")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errors = append(errors, "confidence_threshold must be between 0 and 1")
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		errors = append(errors, "nms_threshold must be between 0 and 1")
	}
	if c.InputSize < 32 || c.InputSize%32 != 0 {
		errors = append(errors, "input_size must be a positive multiple of 32")
	}
	if c.InferenceInterval < 0 {
		errors = append(errors, "inference_interval must not be negative")
	}

	return errors
}

// Wants reports whether detections of classID should be kept
func (c *Config) Wants(classID int) bool {
	if len(c.Classes) == 0 {
		return true
	}
	for _, id := range c.Classes {
		if id == classID {
			return true
		}
	}
	return false
}
