package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-gimbal/pkg/gimbal"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// mockTuner records queued tuning updates
type mockTuner struct {
	mu      sync.Mutex
	current gimbal.TuningParams
	queued  []gimbal.TuningParams
}

func (m *mockTuner) Tuning() gimbal.TuningParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockTuner) SetTuning(p gimbal.TuningParams) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, p)
}

func do(t *testing.T, s *Server, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealth(t *testing.T) {
	s := NewServer(0)
	code, body := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestStatus(t *testing.T) {
	s := NewServer(0)

	code, _ := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, code, "no status before the first cycle")

	s.PublishStatus(gimbal.Status{
		SessionID:   "abc",
		Mode:        tracking.ModeTrack,
		Locked:      true,
		LockCounter: 3,
		Pan:         120.5,
		Tilt:        80,
		Target:      gimbal.Point{X: 330, Y: 250},
		HasTarget:   true,
		Cycles:      42,
	})

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "TRACK", got["mode"])
	assert.Equal(t, "abc", got["session_id"])
	assert.Equal(t, true, got["locked"])
	assert.Equal(t, 120.5, got["pan"])
	assert.Equal(t, float64(42), got["cycles"])
	assert.Equal(t, map[string]any{"x": float64(330), "y": float64(250)}, got["target"])
}

func TestTuningUnavailable(t *testing.T) {
	s := NewServer(0)

	code, _ := do(t, s, http.MethodGet, "/api/tuning", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = do(t, s, http.MethodPost, "/api/tuning", `{"pan_kp": 10}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestGetTuning(t *testing.T) {
	s := NewServer(0)
	s.SetTuner(&mockTuner{current: gimbal.TuningParams{PanKp: 20, PanKd: 4, TiltKp: 18, TiltKd: 3, DeadZone: 0.03, ScanSpeed: 30}})

	code, body := do(t, s, http.MethodGet, "/api/tuning", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"pan_kp":20,"pan_kd":4,"tilt_kp":18,"tilt_kd":3,"deadzone":0.03,"scan_speed":30}`, body)
}

func TestSetTuning(t *testing.T) {
	tuner := &mockTuner{}
	s := NewServer(0)
	s.SetTuner(tuner)

	code, _ := do(t, s, http.MethodPost, "/api/tuning", `{"pan_kp": 25, "deadzone": 0.05}`)
	require.Equal(t, http.StatusAccepted, code)

	require.Len(t, tuner.queued, 1)
	assert.Equal(t, gimbal.TuningParams{PanKp: 25, DeadZone: 0.05}, tuner.queued[0])
}

func TestSetTuningRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"pan_kp": `},
		{"negative gain", `{"tilt_kd": -1}`},
		{"negative scan speed", `{"scan_speed": -30}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuner := &mockTuner{}
			s := NewServer(0)
			s.SetTuner(tuner)

			code, _ := do(t, s, http.MethodPost, "/api/tuning", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Empty(t, tuner.queued)
		})
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := NewServer(0)
	code, _ := do(t, s, http.MethodGet, "/ws/status", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestLogHandler(t *testing.T) {
	s := NewServer(0)
	logger := slog.New(s.LogHandler(slog.LevelInfo)).With("component", "servo")

	logger.Debug("hidden")
	logger.Info("servo armed", "pan", 135.0)
	logger.WithGroup("kalman").Warn("reset", "reason", "transition")

	logs := s.recentLogs(0)
	require.Len(t, logs, 2)

	assert.Equal(t, "INFO", logs[0].Level)
	assert.Equal(t, "servo", logs[0].Component)
	assert.Equal(t, "servo armed", logs[0].Message)
	assert.Equal(t, map[string]string{"pan": "135"}, logs[0].Fields)

	assert.Equal(t, "WARN", logs[1].Level)
	assert.Equal(t, map[string]string{"kalman.reason": "transition"}, logs[1].Fields)

	code, body := do(t, s, http.MethodGet, "/api/logs?limit=1", "")
	require.Equal(t, http.StatusOK, code)

	var got []LogEntry
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "reset", got[0].Message)
}

func TestLogBufferBounded(t *testing.T) {
	s := NewServer(0)
	for i := 0; i < maxLogs+20; i++ {
		s.addLog(LogEntry{Message: "line"})
	}
	assert.Len(t, s.recentLogs(0), maxLogs)
	assert.Len(t, s.recentLogs(10), 10)
}

func TestStreamLimiter(t *testing.T) {
	l := newStreamLimiter(5)
	start := time.Unix(100, 0)

	assert.True(t, l.allow(start))
	assert.False(t, l.allow(start.Add(100*time.Millisecond)))
	assert.True(t, l.allow(start.Add(200*time.Millisecond)))
	assert.False(t, l.allow(start.Add(399*time.Millisecond)))
	assert.True(t, l.allow(start.Add(400*time.Millisecond)))
}

func TestServerImplementsStatusSink(t *testing.T) {
	var _ gimbal.StatusSink = NewServer(0)
	var _ gimbal.FrameObserver = NewServer(0)
}
