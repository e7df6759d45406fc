package client

import (
	"time"
)

// HostUpdateInterval caps how often periodic progress ticks may be
// turned into host updates. Discrete events are never throttled.
const HostUpdateInterval = 250 * time.Millisecond

type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventSeek
	EventRateChange
	EventTimeUpdate
)

func (k EventKind) periodic() bool {
	return k == EventTimeUpdate
}

type Sender interface {
	SendHostUpdate(payload HostUpdatePayload) error
}

// Emitter turns local player events into HOST_UPDATE messages while
// this participant holds the host role.
type Emitter struct {
	player Player
	sender Sender
	clock  Clock

	// trustLocal gates emission while a received correction settles;
	// matters when the role flips right after a correction.
	trustLocal func() bool

	isHost       bool
	lastPeriodic time.Time
}

func NewEmitter(player Player, sender Sender, clock Clock, trustLocal func() bool) *Emitter {
	if trustLocal == nil {
		trustLocal = func() bool { return true }
	}

	return &Emitter{
		player:     player,
		sender:     sender,
		clock:      clock,
		trustLocal: trustLocal,
	}
}

// SetHost flips the role. Losing the role immediately stops emission;
// there is no in-flight grace.
func (e *Emitter) SetHost(isHost bool) {
	e.isHost = isHost
}

func (e *Emitter) IsHost() bool {
	return e.isHost
}

// PlayerEvent reports one local player event. Returns whether an update
// was emitted.
func (e *Emitter) PlayerEvent(kind EventKind) (bool, error) {
	if !e.isHost || !e.trustLocal() {
		return false, nil
	}

	if kind.periodic() {
		now := e.clock.Now()
		if now.Sub(e.lastPeriodic) < HostUpdateInterval {
			return false, nil
		}
		e.lastPeriodic = now
	}

	currentTime := e.player.CurrentTime()
	isPaused := e.player.IsPaused()
	playbackRate := e.player.PlaybackRate()

	if err := e.sender.SendHostUpdate(HostUpdatePayload{
		CurrentTime:  &currentTime,
		IsPaused:     &isPaused,
		PlaybackRate: &playbackRate,
	}); err != nil {
		return false, err
	}

	return true, nil
}
