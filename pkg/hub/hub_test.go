package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	kind int
	data string
}

// fakeConn blocks reads until closed and records writes
type fakeConn struct {
	mu        sync.Mutex
	frames    []frame
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("connection closed")
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame{kind: kind, data: string(data)})
	return nil
}

func (c *fakeConn) SetReadLimit(int64) {}
func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) written(kind int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, f := range c.frames {
		if f.kind == kind {
			out = append(out, f.data)
		}
	}
	return out
}

func TestBroadcastReachesClient(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	conn := newFakeConn()
	client := NewClient(h, conn, Message{Type: TextMessage, Data: []byte(`"hello"`)})
	go client.Run()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]int{"n": 1}))
	h.BroadcastBinary([]byte{0xff, 0xd8})

	require.Eventually(t, func() bool {
		return len(conn.written(websocket.TextMessage)) == 2 && len(conn.written(websocket.BinaryMessage)) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{`"hello"`, `{"n":1}`}, conn.written(websocket.TextMessage))
	assert.Equal(t, []string{"\xff\xd8"}, conn.written(websocket.BinaryMessage))
}

func TestClientDisconnect(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(conn.written(websocket.CloseMessage)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStopDisconnectsClients(t *testing.T) {
	h := New("test")
	go h.Run()

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	// Registering after Stop must not block
	done := make(chan struct{})
	go func() {
		NewClient(h, newFakeConn())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NewClient blocked on a stopped hub")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New("idle") // Not running, nothing drains the queue

	for i := 0; i < 300; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	assert.Equal(t, uint64(300-256), h.Dropped())
}

func TestJSONMessage(t *testing.T) {
	msg, err := JSON(struct {
		Mode string `json:"mode"`
	}{"TRACK"})
	require.NoError(t, err)
	assert.Equal(t, TextMessage, msg.Type)
	assert.JSONEq(t, `{"mode":"TRACK"}`, string(msg.Data))

	_, err = JSON(make(chan int))
	assert.Error(t, err)
}
