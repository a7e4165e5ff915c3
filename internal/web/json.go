package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gate-dialer/internal/display"
	"github.com/sweeney/gate-dialer/internal/gate"
)

// DialResponse is the JSON body returned by POST /dial.
type DialResponse struct {
	Dial DialResult `json:"dial"`
}

// DialResult reports whether the request was queued or coalesced into a pending one.
type DialResult struct {
	Queued bool `json:"queued"`
}

// envelope is the wire format for websocket messages: {type, ts, data}.
type envelope struct {
	Type string      `json:"type"`
	Ts   *time.Time  `json:"ts,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// FrameData is the data payload of a "frame" message.
type FrameData struct {
	LEDs []string `json:"leds"`
}

// PhaseData is the data payload of a "phase" message.
type PhaseData struct {
	Phase   string `json:"phase"`
	Session int    `json:"session"`
}

func formatFrame(f display.Frame, at time.Time) ([]byte, error) {
	at = at.UTC()
	return json.Marshal(envelope{
		Type: "frame",
		Ts:   &at,
		Data: FrameData{LEDs: f.Hex()},
	})
}

func formatPhase(pc gate.PhaseChange) ([]byte, error) {
	at := pc.Time.UTC()
	return json.Marshal(envelope{
		Type: "phase",
		Ts:   &at,
		Data: PhaseData{Phase: string(pc.Phase), Session: pc.Session},
	})
}
