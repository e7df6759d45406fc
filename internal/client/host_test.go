package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent    []HostUpdatePayload
	sendErr error
}

func (s *fakeSender) SendHostUpdate(payload HostUpdatePayload) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, payload)
	return nil
}

func TestEmitterOnlyHostEmits(t *testing.T) {
	player := newFakePlayer()
	sender := &fakeSender{}
	clock := newFakeClock()
	emitter := NewEmitter(player, sender, clock, nil)

	emitted, err := emitter.PlayerEvent(EventPlay)
	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Empty(t, sender.sent)

	emitter.SetHost(true)
	emitted, err = emitter.PlayerEvent(EventPlay)
	require.NoError(t, err)
	assert.True(t, emitted)
	require.Len(t, sender.sent, 1)
}

func TestEmitterSnapshotFields(t *testing.T) {
	player := newFakePlayer()
	player.currentTime = 33.5
	player.paused = false
	player.playbackRate = 1.5
	sender := &fakeSender{}
	emitter := NewEmitter(player, sender, newFakeClock(), nil)
	emitter.SetHost(true)

	_, err := emitter.PlayerEvent(EventSeek)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	payload := sender.sent[0]
	require.NotNil(t, payload.CurrentTime)
	require.NotNil(t, payload.IsPaused)
	require.NotNil(t, payload.PlaybackRate)
	assert.Equal(t, 33.5, *payload.CurrentTime)
	assert.False(t, *payload.IsPaused)
	assert.Equal(t, 1.5, *payload.PlaybackRate)
}

func TestEmitterThrottlesPeriodicTicks(t *testing.T) {
	player := newFakePlayer()
	sender := &fakeSender{}
	clock := newFakeClock()
	emitter := NewEmitter(player, sender, clock, nil)
	emitter.SetHost(true)

	emitted, err := emitter.PlayerEvent(EventTimeUpdate)
	require.NoError(t, err)
	assert.True(t, emitted)

	// inside the window: tick dropped, discrete event still goes out
	clock.Advance(100 * time.Millisecond)
	emitted, err = emitter.PlayerEvent(EventTimeUpdate)
	require.NoError(t, err)
	assert.False(t, emitted)

	emitted, err = emitter.PlayerEvent(EventPause)
	require.NoError(t, err)
	assert.True(t, emitted)

	// past the window the next tick goes out
	clock.Advance(HostUpdateInterval)
	emitted, err = emitter.PlayerEvent(EventTimeUpdate)
	require.NoError(t, err)
	assert.True(t, emitted)

	assert.Len(t, sender.sent, 3)
}

func TestEmitterSuppressedDuringCooldown(t *testing.T) {
	player := newFakePlayer()
	sender := &fakeSender{}
	clock := newFakeClock()
	trusted := false
	emitter := NewEmitter(player, sender, clock, func() bool { return trusted })
	emitter.SetHost(true)

	emitted, err := emitter.PlayerEvent(EventSeek)
	require.NoError(t, err)
	assert.False(t, emitted, "correction side effects must not be re-emitted")

	trusted = true
	emitted, err = emitter.PlayerEvent(EventSeek)
	require.NoError(t, err)
	assert.True(t, emitted)
}

func TestEmitterStopsOnRoleLoss(t *testing.T) {
	player := newFakePlayer()
	sender := &fakeSender{}
	emitter := NewEmitter(player, sender, newFakeClock(), nil)
	emitter.SetHost(true)

	_, err := emitter.PlayerEvent(EventPlay)
	require.NoError(t, err)

	emitter.SetHost(false)
	emitted, err := emitter.PlayerEvent(EventPlay)
	require.NoError(t, err)
	assert.False(t, emitted)
	assert.Len(t, sender.sent, 1)
}

func TestEmitterSendError(t *testing.T) {
	player := newFakePlayer()
	sender := &fakeSender{sendErr: errors.New("conn closed")}
	emitter := NewEmitter(player, sender, newFakeClock(), nil)
	emitter.SetHost(true)

	emitted, err := emitter.PlayerEvent(EventPlay)
	assert.Error(t, err)
	assert.False(t, emitted)
}
