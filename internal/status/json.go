package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gate-dialer/internal/display"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Phase         string       `json:"phase"`
	Session       int          `json:"session"`
	Dial          DialJSON     `json:"dial"`
	Trigger       TriggerJSON  `json:"trigger"`
	Outcomes      OutcomesJSON `json:"outcomes"`
	LastChevron   *ChevronJSON `json:"last_chevron,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// DialJSON is the dial ring state.
type DialJSON struct {
	Position  int    `json:"position"`
	LED       int    `json:"led"`
	Direction string `json:"direction"`
	Locked    []int  `json:"locked"`
}

// TriggerJSON is the trigger and capture state.
type TriggerJSON struct {
	Asserted bool        `json:"asserted"`
	Mode     string      `json:"mode"`
	Buffered int         `json:"buffered"`
	Counts   PulseCounts `json:"pulses"`
	Capture  CaptureJSON `json:"capture"`
}

// PulseCounts is the JSON representation of trigger sample counts.
type PulseCounts struct {
	Gameplay int `json:"gameplay"`
	Attract  int `json:"attract"`
	Invalid  int `json:"invalid"`
	Cleared  int `json:"cleared"`
}

// CaptureJSON is the JSON representation of edge capture counters.
type CaptureJSON struct {
	Completed   uint64 `json:"completed"`
	Spurious    uint64 `json:"spurious"`
	Overwritten uint64 `json:"overwritten"`
}

// OutcomesJSON is the JSON representation of chevron outcome counts.
type OutcomesJSON struct {
	Encoded       int `json:"encoded"`
	Locked        int `json:"locked"`
	WillNotEngage int `json:"will_not_engage"`
}

// ChevronJSON describes the most recent chevron reached.
type ChevronJSON struct {
	Timestamp string `json:"timestamp"`
	Number    int    `json:"number"`
	Chevron   int    `json:"chevron"`
	Position  int    `json:"position"`
	Outcome   string `json:"outcome"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend    string `json:"backend"`
	TriggerPin string `json:"trigger_pin"`
	TestPin    string `json:"test_pin,omitempty"`
	FrameMs    int64  `json:"frame_ms"`
	SelfTest   bool   `json:"self_test"`
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
	HomeKit    bool   `json:"homekit"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}
	mode := string(snap.Trigger.LastMode)
	if mode == "" {
		mode = "NONE"
	}
	locked := snap.Locked
	if locked == nil {
		locked = []int{}
	}

	inner := StatusInner{
		Phase:   phase,
		Session: snap.Session,
		Dial: DialJSON{
			Position:  snap.Position,
			LED:       display.LED(snap.Position),
			Direction: string(snap.Direction),
			Locked:    locked,
		},
		Trigger: TriggerJSON{
			Asserted: snap.Trigger.Asserted,
			Mode:     mode,
			Buffered: snap.Trigger.Buffered,
			Counts: PulseCounts{
				Gameplay: snap.Trigger.Counts.Gameplay,
				Attract:  snap.Trigger.Counts.Attract,
				Invalid:  snap.Trigger.Counts.Invalid,
				Cleared:  snap.Trigger.Counts.Cleared,
			},
			Capture: CaptureJSON{
				Completed:   snap.Trigger.Capture.Completed,
				Spurious:    snap.Trigger.Capture.Spurious,
				Overwritten: snap.Trigger.Capture.Overwritten,
			},
		},
		Outcomes: OutcomesJSON{
			Encoded:       snap.Outcomes.Encoded,
			Locked:        snap.Outcomes.Locked,
			WillNotEngage: snap.Outcomes.WillNotEngage,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Backend:    snap.Config.Backend,
			TriggerPin: snap.Config.TriggerPin,
			TestPin:    snap.Config.TestPin,
			FrameMs:    snap.Config.FrameMs,
			SelfTest:   snap.Config.SelfTest,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
			HomeKit:    snap.Config.HomeKit,
		},
	}

	if ev := snap.LastChevron; ev != nil {
		inner.LastChevron = &ChevronJSON{
			Timestamp: ev.Time.UTC().Format(time.RFC3339),
			Number:    ev.Number,
			Chevron:   ev.Chevron,
			Position:  ev.Position,
			Outcome:   string(ev.Outcome),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
