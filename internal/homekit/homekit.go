// Package homekit exposes the gate as a HomeKit accessory: a switch that
// requests a dial and a contact sensor that reads "open" while the gate is open.
package homekit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"github.com/sweeney/gate-dialer/internal/gate"
)

// DefaultResetAfter is how long the dial switch stays on before flipping back.
const DefaultResetAfter = time.Second

// Dialer asks the gate to dial. *gate.Gate implements it.
type Dialer interface {
	RequestDial() bool
}

// Accessory is the gate's HomeKit face.
type Accessory struct {
	sw      *accessory.Switch
	contact *service.ContactSensor
	dialer  Dialer
	logger  *slog.Logger
	open    atomic.Bool

	resetAfter time.Duration
	afterFunc  func(time.Duration, func())
}

// New builds the accessory. Turning the switch on requests a dial.
func New(name string, dialer Dialer, logger *slog.Logger) *Accessory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sw := accessory.NewSwitch(accessory.Info{
		Name:         name,
		SerialNumber: "SG-1",
		Manufacturer: "sweeney",
		Model:        "gate-dialer",
		Firmware:     "0.0.1",
	})

	a := &Accessory{
		sw:         sw,
		contact:    service.NewContactSensor(),
		dialer:     dialer,
		logger:     logger,
		resetAfter: DefaultResetAfter,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}

	n := characteristic.NewName()
	n.SetValue("event horizon")
	a.contact.AddC(n.C)
	a.contact.ContactSensorState.SetValue(characteristic.ContactSensorStateContactDetected)
	sw.AddS(a.contact.S)

	sw.Switch.On.SetValue(false)
	sw.Switch.On.OnValueRemoteUpdate(a.onDialSwitch)

	return a
}

func (a *Accessory) onDialSwitch(on bool) {
	if !on {
		return
	}
	queued := a.dialer.RequestDial()
	a.logger.Info("homekit dial requested", "queued", queued)

	// Momentary switch: flip back off once the request is in.
	a.afterFunc(a.resetAfter, func() {
		a.sw.Switch.On.SetValue(false)
	})
}

// SetPhase updates the contact sensor from a gate phase change.
func (a *Accessory) SetPhase(pc gate.PhaseChange) {
	open := pc.Phase == gate.PhaseOpen
	if a.open.Swap(open) == open {
		return
	}
	state := characteristic.ContactSensorStateContactDetected
	if open {
		state = characteristic.ContactSensorStateContactNotDetected
	}
	a.contact.ContactSensorState.SetValue(state)
	a.logger.Debug("homekit contact updated", "open", open)
}

// Open reports whether the contact sensor currently reads open.
func (a *Accessory) Open() bool {
	return a.open.Load()
}

// Serve runs the HAP server until ctx is cancelled. Pairing state lives in stateDir.
func (a *Accessory) Serve(ctx context.Context, stateDir, pin string) error {
	server, err := hap.NewServer(hap.NewFsStore(stateDir), a.sw.A)
	if err != nil {
		return fmt.Errorf("create hap server: %w", err)
	}
	if pin != "" {
		server.Pin = pin
	}
	a.logger.Info("homekit accessory serving", "state_dir", stateDir)
	if err := server.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("hap server: %w", err)
	}
	return nil
}
