// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gate-dialer/internal/gate"
)

// Topic is the MQTT topic for chevron events.
const Topic = "gate/dialer/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gate/dialer/system"

// System event names published on TopicSystem.
const (
	EventStartup   = "STARTUP"
	EventShutdown  = "SHUTDOWN"
	EventPhase     = "PHASE"
	EventHeartbeat = "HEARTBEAT"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishChevron sends a chevron outcome to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishChevron(event gate.ChevronEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, phase change).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // one of the Event* names
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Chevron ChevronPayload `json:"chevron"`
}

// ChevronPayload contains the chevron event details.
type ChevronPayload struct {
	Timestamp string `json:"timestamp"`
	Session   int    `json:"session"`
	Number    int    `json:"number"`
	Chevron   int    `json:"chevron"`
	Position  int    `json:"position"`
	Direction string `json:"direction"`
	Outcome   string `json:"outcome"`
}

// FormatPayload creates the JSON payload for a chevron event.
func FormatPayload(event gate.ChevronEvent) ([]byte, error) {
	payload := Payload{
		Chevron: ChevronPayload{
			Timestamp: event.Time.UTC().Format(time.RFC3339),
			Session:   event.Session,
			Number:    event.Number,
			Chevron:   event.Chevron,
			Position:  event.Position,
			Direction: string(event.Direction),
			Outcome:   string(event.Outcome),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the last-will message the broker publishes if the daemon drops off.
func WillPayload(now time.Time) ([]byte, error) {
	return FormatSystemPayload(SystemEvent{
		Timestamp: now,
		Event:     EventShutdown,
		Reason:    "MQTT_DISCONNECT",
	})
}
