package homekit

import (
	"testing"
	"time"

	"github.com/brutella/hap/characteristic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gate-dialer/internal/gate"
)

type countingDialer struct {
	calls int
}

func (d *countingDialer) RequestDial() bool {
	d.calls++
	return d.calls == 1
}

func newTestAccessory(t *testing.T) (*Accessory, *countingDialer, *[]time.Duration) {
	t.Helper()
	d := &countingDialer{}
	a := New("stargate", d, nil)

	var delays []time.Duration
	a.afterFunc = func(delay time.Duration, f func()) {
		delays = append(delays, delay)
		f()
	}
	return a, d, &delays
}

func TestDialSwitchRequestsDialAndResets(t *testing.T) {
	a, d, delays := newTestAccessory(t)

	a.sw.Switch.On.SetValue(true)
	a.onDialSwitch(true)

	assert.Equal(t, 1, d.calls)
	require.Len(t, *delays, 1)
	assert.Equal(t, DefaultResetAfter, (*delays)[0])
	assert.False(t, a.sw.Switch.On.Value(), "switch flips back off")
}

func TestDialSwitchOffIsIgnored(t *testing.T) {
	a, d, delays := newTestAccessory(t)

	a.onDialSwitch(false)

	assert.Zero(t, d.calls)
	assert.Empty(t, *delays)
}

func TestContactSensorFollowsOpenPhase(t *testing.T) {
	a, _, _ := newTestAccessory(t)
	state := a.contact.ContactSensorState

	assert.False(t, a.Open())
	assert.Equal(t, characteristic.ContactSensorStateContactDetected, state.Value())

	a.SetPhase(gate.PhaseChange{Phase: gate.PhaseDialing, Session: 1})
	assert.False(t, a.Open(), "dialing is not open")

	a.SetPhase(gate.PhaseChange{Phase: gate.PhaseOpen, Session: 1})
	assert.True(t, a.Open())
	assert.Equal(t, characteristic.ContactSensorStateContactNotDetected, state.Value())

	a.SetPhase(gate.PhaseChange{Phase: gate.PhaseCollapsing, Session: 1})
	assert.False(t, a.Open())
	assert.Equal(t, characteristic.ContactSensorStateContactDetected, state.Value())
}

func TestAccessoryCarriesContactService(t *testing.T) {
	a, _, _ := newTestAccessory(t)

	found := false
	for _, s := range a.sw.A.Ss {
		if s == a.contact.S {
			found = true
		}
	}
	assert.True(t, found, "contact sensor service attached to the accessory")
}
