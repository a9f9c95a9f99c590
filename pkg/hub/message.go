// Package hub fans dashboard updates out to websocket clients. One goroutine
// owns the client set; each client has its own writer goroutine.
package hub

import "encoding/json"

// MessageType selects the websocket frame type
type MessageType int

const (
	// TextMessage carries JSON
	TextMessage MessageType = iota
	// BinaryMessage carries raw bytes, e.g. JPEG frames
	BinaryMessage
)

// Message is one broadcast payload
type Message struct {
	Type MessageType
	Data []byte
}

// JSON encodes v into a text message
func JSON(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: TextMessage, Data: data}, nil
}

// Binary wraps raw bytes
func Binary(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
