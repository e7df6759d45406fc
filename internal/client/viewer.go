package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/watchroom/server/internal/playback"
)

const (
	// CorrectionCooldown is how long local player events are distrusted
	// after a correction has been applied, so that the correction's own
	// side effects are not fed back as new drift.
	CorrectionCooldown = 250 * time.Millisecond
	// LoadTimeout bounds how long a load waits for the player to attach.
	LoadTimeout = 8 * time.Second
)

var ErrLoadFailed = errors.New("failed to load video")

// Player is the local media element a viewer session drives.
type Player interface {
	Load(ctx context.Context, url string, startTime float64) error
	CurrentTime() float64
	Seek(seconds float64)
	PlaybackRate() float64
	SetPlaybackRate(rate float64)
	IsPaused() bool
	Pause()
	Play()
}

// ViewerSession reconciles a local player against host-authored state
// updates. It is not safe for concurrent use; the caller feeds it one
// message at a time, in the order they were received.
type ViewerSession struct {
	player  Player
	machine *playback.Machine
	clock   Clock
	logger  *slog.Logger

	loadTimeout   time.Duration
	lastUpdatedAt int64
	suppressUntil time.Time
}

func NewViewerSession(player Player, clock Clock, logger *slog.Logger) *ViewerSession {
	return &ViewerSession{
		player:      player,
		machine:     playback.NewMachine(),
		clock:       clock,
		logger:      logger,
		loadTimeout: LoadTimeout,
	}
}

// Status reports the reconciliation phase shown to the user.
func (s *ViewerSession) Status() string {
	return s.machine.State().String()
}

// TrustLocalEvents reports whether locally observed player events may
// be treated as user intent. False while a correction is settling.
func (s *ViewerSession) TrustLocalEvents() bool {
	return s.clock.Now().After(s.suppressUntil)
}

// ApplyRemoteState runs drift correction for one received state.
// Stale states (older updated_at than one already applied) are dropped.
func (s *ViewerSession) ApplyRemoteState(ctx context.Context, state StatePayload) error {
	if state.UpdatedAt < s.lastUpdatedAt {
		s.logger.DebugContext(ctx, "dropping stale state", "updated_at", state.UpdatedAt, "last_applied", s.lastUpdatedAt)
		return nil
	}

	if s.machine.State() == playback.StateLoading {
		return nil
	}

	// a failed load is terminal for that content; only different
	// content leaves the error state
	if s.machine.State() == playback.StateError && state.VideoId == s.machine.VideoId() {
		return nil
	}

	desired := playback.PlayerState{
		VideoId:      state.VideoId,
		CurrentTime:  state.CurrentTime,
		IsPaused:     state.IsPaused,
		PlaybackRate: state.PlaybackRate,
	}
	local := playback.PlayerState{
		VideoId:      s.machine.VideoId(),
		CurrentTime:  s.player.CurrentTime(),
		IsPaused:     s.player.IsPaused(),
		PlaybackRate: s.player.PlaybackRate(),
	}

	correction := playback.Decide(desired, local)
	if correction.Kind == playback.ActionLoad {
		return s.loadContent(ctx, state)
	}

	s.lastUpdatedAt = state.UpdatedAt

	switch correction.Kind {
	case playback.ActionSeek:
		s.player.Seek(correction.SeekTo)
		s.player.SetPlaybackRate(correction.Rate)
	case playback.ActionNudgeRate, playback.ActionSnapRate:
		if s.player.PlaybackRate() != correction.Rate {
			s.player.SetPlaybackRate(correction.Rate)
		}
	}
	s.machine.Applied(correction.Kind)

	// pause transition last, so a seek and a pause in one message compose
	if correction.Pause {
		s.player.Pause()
	} else if correction.Resume {
		s.player.Play()
	}

	s.suppressUntil = s.clock.Now().Add(CorrectionCooldown)

	return nil
}

func (s *ViewerSession) loadContent(ctx context.Context, state StatePayload) error {
	s.machine.StartLoad(state.VideoId)

	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	if err := s.player.Load(loadCtx, state.VideoURL, state.CurrentTime); err != nil {
		s.machine.LoadFailed()
		s.logger.WarnContext(ctx, "video load failed", "video_id", state.VideoId, "error", err)
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	if err := s.machine.LoadReady(); err != nil {
		return err
	}

	s.player.Seek(state.CurrentTime)
	s.player.SetPlaybackRate(state.PlaybackRate)
	if state.IsPaused {
		s.player.Pause()
	} else {
		s.player.Play()
	}

	s.lastUpdatedAt = state.UpdatedAt
	s.suppressUntil = s.clock.Now().Add(CorrectionCooldown)

	return nil
}
