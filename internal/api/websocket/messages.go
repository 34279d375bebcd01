package websocket

import (
	"time"

	"github.com/legendik/volta-bridge/internal/volta"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Boiler data messages
	MessageTypeSnapshot     MessageType = "snapshot"
	MessageTypeAvailability MessageType = "availability"
	MessageTypeValueWritten MessageType = "value_written"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SnapshotData carries one published poll-cycle snapshot.
type SnapshotData struct {
	Values volta.Snapshot `json:"values"`
}

// AvailabilityData signals a device availability transition.
type AvailabilityData struct {
	Available bool `json:"available"`
}

// ValueWrittenData reports a completed register write.
type ValueWrittenData struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewSnapshotMessage(snap volta.Snapshot) Message {
	return NewMessage(MessageTypeSnapshot, SnapshotData{Values: snap})
}

func NewAvailabilityMessage(available bool) Message {
	return NewMessage(MessageTypeAvailability, AvailabilityData{Available: available})
}

func NewValueWrittenMessage(key string, value float64) Message {
	return NewMessage(MessageTypeValueWritten, ValueWrittenData{Key: key, Value: value})
}
