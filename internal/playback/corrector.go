package playback

import "math"

// Correction thresholds. Drift above the hard threshold (or any update
// with paused set) is corrected by a direct seek; drift between the two
// thresholds is closed by nudging the playback rate, which converges
// without a visible jump.
const (
	HardSeekThreshold = 1.2
	SoftSyncThreshold = 0.35
	RateNudgeStep     = 0.08
	MinPlaybackRate   = 0.5
	MaxPlaybackRate   = 2.0
)

// PlayerState is an observed (or desired) player snapshot.
type PlayerState struct {
	VideoId      string
	CurrentTime  float64
	IsPaused     bool
	PlaybackRate float64
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	// ActionLoad: different or missing content, load it first.
	ActionLoad
	// ActionSeek: hard seek to the desired position and snap the rate.
	ActionSeek
	// ActionNudgeRate: close the gap by adjusting the rate only.
	ActionNudgeRate
	// ActionSnapRate: drift is negligible, restore the exact host rate.
	ActionSnapRate
)

func (k ActionKind) String() string {
	switch k {
	case ActionLoad:
		return "load"
	case ActionSeek:
		return "seek"
	case ActionNudgeRate:
		return "nudge-rate"
	case ActionSnapRate:
		return "snap-rate"
	default:
		return "none"
	}
}

// Correction is the decision the corrector makes for one received
// state. Pause and Resume are applied last so that a hard seek and a
// pause transition in the same message compose.
type Correction struct {
	Kind   ActionKind
	SeekTo float64
	Rate   float64
	Pause  bool
	Resume bool
}

func clampRate(rate float64) float64 {
	return math.Min(math.Max(rate, MinPlaybackRate), MaxPlaybackRate)
}

// Decide converts a (desired, local) pair into a corrective action.
func Decide(desired PlayerState, local PlayerState) Correction {
	if local.VideoId == "" || desired.VideoId != local.VideoId {
		return Correction{
			Kind:   ActionLoad,
			SeekTo: desired.CurrentTime,
			Rate:   desired.PlaybackRate,
			Pause:  desired.IsPaused,
			Resume: !desired.IsPaused,
		}
	}

	correction := Correction{
		Pause:  desired.IsPaused && !local.IsPaused,
		Resume: !desired.IsPaused && local.IsPaused,
	}

	diff := desired.CurrentTime - local.CurrentTime
	switch {
	case math.Abs(diff) > HardSeekThreshold || desired.IsPaused:
		correction.Kind = ActionSeek
		correction.SeekTo = desired.CurrentTime
		correction.Rate = desired.PlaybackRate
	case math.Abs(diff) > SoftSyncThreshold:
		correction.Kind = ActionNudgeRate
		if diff > 0 {
			correction.Rate = clampRate(desired.PlaybackRate + RateNudgeStep)
		} else {
			correction.Rate = clampRate(desired.PlaybackRate - RateNudgeStep)
		}
	default:
		correction.Kind = ActionSnapRate
		correction.Rate = desired.PlaybackRate
	}

	return correction
}
