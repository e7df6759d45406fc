package client

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	videoURL     string
	currentTime  float64
	playbackRate float64
	paused       bool

	loadErr   error
	loadCalls int
	seekCalls int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{playbackRate: 1, paused: true}
}

func (p *fakePlayer) Load(_ context.Context, url string, startTime float64) error {
	p.loadCalls++
	if p.loadErr != nil {
		return p.loadErr
	}
	p.videoURL = url
	p.currentTime = startTime
	return nil
}

func (p *fakePlayer) CurrentTime() float64 { return p.currentTime }

func (p *fakePlayer) Seek(seconds float64) {
	p.seekCalls++
	p.currentTime = seconds
}

func (p *fakePlayer) PlaybackRate() float64 { return p.playbackRate }

func (p *fakePlayer) SetPlaybackRate(rate float64) { p.playbackRate = rate }

func (p *fakePlayer) IsPaused() bool { return p.paused }

func (p *fakePlayer) Pause() { p.paused = true }

func (p *fakePlayer) Play() { p.paused = false }

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func playingState(videoId string, currentTime float64, updatedAt int64) StatePayload {
	return StatePayload{
		VideoId:      videoId,
		VideoURL:     "https://cdn.example/" + videoId,
		CurrentTime:  currentTime,
		IsPaused:     false,
		PlaybackRate: 1,
		UpdatedAt:    updatedAt,
		Status:       "playing",
	}
}

func TestViewerLoadsNewContent(t *testing.T) {
	player := newFakePlayer()
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 42, 1000)))
	assert.Equal(t, "ready", session.Status())
	assert.Equal(t, "https://cdn.example/abc", player.videoURL)
	assert.Equal(t, 42.0, player.currentTime)
	assert.False(t, player.paused)
}

func TestViewerDropsStaleState(t *testing.T) {
	player := newFakePlayer()
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 42, 2000)))
	clock.Advance(time.Second)

	// older updated_at arrives late and must not move the player
	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 5, 1000)))
	assert.Equal(t, 42.0, player.currentTime)
}

func TestViewerHardSeek(t *testing.T) {
	player := newFakePlayer()
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 10, 1000)))
	clock.Advance(time.Second)
	player.currentTime = 10

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 15, 2000)))
	assert.Equal(t, 15.0, player.currentTime)
	assert.Equal(t, "ready", session.Status())
	assert.Equal(t, 1, player.loadCalls, "same content must not reload")
}

func TestViewerRateNudgeAndSettle(t *testing.T) {
	player := newFakePlayer()
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 10, 1000)))
	clock.Advance(time.Second)

	// half a second behind: speed up without seeking
	player.currentTime = 9.5
	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 10, 2000)))
	assert.InDelta(t, 1.08, player.playbackRate, 1e-9)
	assert.Equal(t, "rate-adjusting", session.Status())
	assert.Equal(t, 1, player.seekCalls, "nudge must not seek")

	// caught up: rate snaps back and the session settles
	clock.Advance(time.Second)
	player.currentTime = 12.1
	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 12, 3000)))
	assert.Equal(t, 1.0, player.playbackRate)
	assert.Equal(t, "ready", session.Status())
}

func TestViewerPauseAppliesAfterSeek(t *testing.T) {
	player := newFakePlayer()
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 10, 1000)))
	clock.Advance(time.Second)

	paused := playingState("abc", 30, 2000)
	paused.IsPaused = true
	require.NoError(t, session.ApplyRemoteState(context.Background(), paused))
	assert.Equal(t, 30.0, player.currentTime)
	assert.True(t, player.paused)
}

func TestViewerCorrectionCooldown(t *testing.T) {
	player := newFakePlayer()
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 10, 1000)))
	assert.False(t, session.TrustLocalEvents(), "events right after a correction are not trusted")

	clock.Advance(CorrectionCooldown + time.Millisecond)
	assert.True(t, session.TrustLocalEvents())
}

func TestViewerLoadFailure(t *testing.T) {
	player := newFakePlayer()
	player.loadErr = errors.New("codec not supported")
	clock := newFakeClock()
	session := NewViewerSession(player, clock, slog.Default())

	err := session.ApplyRemoteState(context.Background(), playingState("abc", 0, 1000))
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.Equal(t, "error", session.Status())

	// no auto-retry: the same content is not reloaded
	player.loadErr = nil
	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("abc", 0, 2000)))
	assert.Equal(t, "error", session.Status())
	assert.Equal(t, 1, player.loadCalls)

	// different content leaves the error state
	require.NoError(t, session.ApplyRemoteState(context.Background(), playingState("def", 0, 3000)))
	assert.Equal(t, "ready", session.Status())
	assert.Equal(t, 2, player.loadCalls)

}
