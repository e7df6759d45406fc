package playback

import "fmt"

// State is the per-viewer, per-content reconciliation phase.
//
//	Idle -> Loading -> Ready <-> RateAdjusting
//	Loading -> Error (load failure, no auto-retry)
//	any -> Idle on content change
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateRateAdjusting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRateAdjusting:
		return "rate-adjusting"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Machine struct {
	state   State
	videoId string
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) VideoId() string {
	return m.videoId
}

// StartLoad enters Loading for the given content, from any state.
func (m *Machine) StartLoad(videoId string) {
	m.state = StateLoading
	m.videoId = videoId
}

func (m *Machine) LoadReady() error {
	if m.state != StateLoading {
		return fmt.Errorf("load ready in state %s", m.state)
	}
	m.state = StateReady

	return nil
}

func (m *Machine) LoadFailed() error {
	if m.state != StateLoading {
		return fmt.Errorf("load failed in state %s", m.state)
	}
	m.state = StateError

	return nil
}

// Applied records the effect of an executed correction on the machine.
func (m *Machine) Applied(kind ActionKind) {
	switch m.state {
	case StateReady, StateRateAdjusting:
	default:
		return
	}

	if kind == ActionNudgeRate {
		m.state = StateRateAdjusting
	} else {
		m.state = StateReady
	}
}

// Reset returns to Idle, dropping the loaded content.
func (m *Machine) Reset() {
	m.state = StateIdle
	m.videoId = ""
}
