package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/media"
	connection "github.com/watchroom/server/internal/repository/connection/inmemory"
	roomrepo "github.com/watchroom/server/internal/repository/room"
	roominmemory "github.com/watchroom/server/internal/repository/room/inmemory"
	"github.com/watchroom/server/internal/repository/video"
)

const testVideoId = "abc123456789"

type fakeResolver struct {
	records        map[string]video.Record
	playbackExpiry time.Duration

	refreshCalls int
	// runs between the host check and the state write, standing in for
	// the time the real resolver spends talking to the object store
	resolveHook func()
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		records: map[string]video.Record{
			testVideoId: {
				ObjectKey: "videos/" + testVideoId + "/clip.mp4",
				Name:      "clip.mp4",
				MimeType:  "video/mp4",
				Size:      4096,
				Status:    video.StatusReady,
			},
		},
		playbackExpiry: time.Hour,
	}
}

func (f *fakeResolver) Resolve(_ context.Context, videoId string) (video.Record, media.Playback, error) {
	if f.resolveHook != nil {
		f.resolveHook()
	}

	record, ok := f.records[videoId]
	if !ok {
		return video.Record{}, media.Playback{}, media.ErrVideoUnavailable
	}

	return record, media.Playback{
		URL:       "https://store.example/" + record.ObjectKey + "?signed",
		ExpiresAt: time.Now().Add(f.playbackExpiry).UnixMilli(),
	}, nil
}

func (f *fakeResolver) EnsureFresh(_ context.Context, state *roomrepo.PlaybackState) bool {
	if state == nil || state.ObjectKey == "" {
		return false
	}
	if time.Now().UnixMilli() < state.URLExpiresAt-time.Minute.Milliseconds() {
		return false
	}

	f.refreshCalls++
	state.VideoURL = "https://store.example/" + state.ObjectKey + "?refreshed"
	state.URLExpiresAt = time.Now().Add(time.Hour).UnixMilli()

	return true
}

func newTestService(resolver *fakeResolver) *service {
	return NewService(roominmemory.NewRepo(), connection.NewRepo(), resolver, slog.Default())
}

func join(t *testing.T, s *service, roomId, displayName string) JoinRoomResponse {
	t.Helper()
	response, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		DisplayName: displayName,
		Conn:        &websocket.Conn{},
		RoomId:      roomId,
	})
	require.NoError(t, err)
	return response
}

func TestJoinRoomFirstParticipantIsHost(t *testing.T) {
	s := newTestService(newFakeResolver())

	first := join(t, s, "room1", "alice")
	assert.Equal(t, first.ParticipantId, first.HostId)
	assert.Nil(t, first.State, "fresh room has no playback state")
	assert.Empty(t, first.Conns)

	second := join(t, s, "room1", "bob")
	assert.Equal(t, first.ParticipantId, second.HostId, "joining must not steal the host role")
	assert.Len(t, second.Conns, 1, "broadcast excludes the joiner")
}

func TestSetVideoRequiresHost(t *testing.T) {
	s := newTestService(newFakeResolver())
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	viewer := join(t, s, "room1", "bob")

	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: viewer.ParticipantId,
		RoomId:   "room1",
	})
	assert.ErrorIs(t, err, ErrNotHost)

	response, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:   testVideoId,
		StartTime: -5,
		SenderId:  host.ParticipantId,
		RoomId:    "room1",
	})
	require.NoError(t, err)
	assert.Equal(t, testVideoId, response.State.VideoId)
	assert.Equal(t, "clip.mp4", response.State.VideoName)
	assert.True(t, response.State.IsPaused, "new video starts paused")
	assert.Equal(t, 1.0, response.State.PlaybackRate)
	assert.Equal(t, 0.0, response.State.CurrentTime, "negative start time clamps to zero")
	assert.Len(t, response.Conns, 2, "video load goes to the whole room, host included")
}

func TestSetVideoUnknownVideo(t *testing.T) {
	s := newTestService(newFakeResolver())

	host := join(t, s, "room1", "alice")
	_, err := s.SetVideo(context.Background(), &SetVideoParams{
		VideoId:  "missing",
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	assert.ErrorIs(t, err, media.ErrVideoUnavailable)
}

func TestSetVideoLosesRaceToHostChange(t *testing.T) {
	resolver := newFakeResolver()
	s := newTestService(resolver)
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	viewer := join(t, s, "room1", "bob")

	// the host role moves while the old host's SetVideo is suspended
	// in the resolver
	resolver.resolveHook = func() {
		_, err := s.RequestHost(ctx, &RequestHostParams{SenderId: viewer.ParticipantId, RoomId: "room1"})
		require.NoError(t, err)
	}

	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	assert.ErrorIs(t, err, ErrStaleAuthority)
}

func TestApplyHostUpdate(t *testing.T) {
	s := newTestService(newFakeResolver())
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	join(t, s, "room1", "bob")

	// no state yet
	currentTime := 10.0
	_, err := s.ApplyHostUpdate(ctx, &ApplyHostUpdateParams{
		CurrentTime: &currentTime,
		SenderId:    host.ParticipantId,
		RoomId:      "room1",
	})
	assert.ErrorIs(t, err, ErrNoState)

	_, err = s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	require.NoError(t, err)

	isPaused := false
	response, err := s.ApplyHostUpdate(ctx, &ApplyHostUpdateParams{
		CurrentTime: &currentTime,
		IsPaused:    &isPaused,
		SenderId:    host.ParticipantId,
		RoomId:      "room1",
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, response.State.CurrentTime)
	assert.False(t, response.State.IsPaused)
	assert.Equal(t, 1.0, response.State.PlaybackRate, "omitted field keeps its value")
	assert.Len(t, response.Conns, 1, "sync goes to everyone but the host")
}

func TestApplyHostUpdateRequiresHost(t *testing.T) {
	s := newTestService(newFakeResolver())
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	viewer := join(t, s, "room1", "bob")

	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	require.NoError(t, err)

	currentTime := 10.0
	_, err = s.ApplyHostUpdate(ctx, &ApplyHostUpdateParams{
		CurrentTime: &currentTime,
		SenderId:    viewer.ParticipantId,
		RoomId:      "room1",
	})
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestRequestHost(t *testing.T) {
	s := newTestService(newFakeResolver())
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	viewer := join(t, s, "room1", "bob")

	response, err := s.RequestHost(ctx, &RequestHostParams{SenderId: viewer.ParticipantId, RoomId: "room1"})
	require.NoError(t, err)
	assert.True(t, response.Changed)
	assert.Equal(t, viewer.ParticipantId, response.HostId)
	assert.Len(t, response.Conns, 2)

	// requesting again is a no-op with nothing to broadcast
	response, err = s.RequestHost(ctx, &RequestHostParams{SenderId: viewer.ParticipantId, RoomId: "room1"})
	require.NoError(t, err)
	assert.False(t, response.Changed)
	assert.Empty(t, response.Conns)

	_, err = s.RequestHost(ctx, &RequestHostParams{SenderId: host.ParticipantId, RoomId: "missing"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestHostDisconnectFailsOver(t *testing.T) {
	s := newTestService(newFakeResolver())
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	second := join(t, s, "room1", "bob")
	join(t, s, "room1", "carol")

	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	require.NoError(t, err)

	response, err := s.DisconnectParticipant(ctx, &DisconnectParticipantParams{
		ParticipantId: host.ParticipantId,
		RoomId:        "room1",
	})
	require.NoError(t, err)
	assert.True(t, response.WasHost)
	assert.Equal(t, second.ParticipantId, response.NewHostId, "oldest remaining participant takes over")
	assert.False(t, response.RoomDeleted)
	require.NotNil(t, response.State)
	assert.Equal(t, testVideoId, response.State.VideoId)
	assert.Len(t, response.Conns, 2)
}

func TestLastParticipantLeavingDeletesRoom(t *testing.T) {
	s := newTestService(newFakeResolver())
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	require.NoError(t, err)

	response, err := s.DisconnectParticipant(ctx, &DisconnectParticipantParams{
		ParticipantId: host.ParticipantId,
		RoomId:        "room1",
	})
	require.NoError(t, err)
	assert.True(t, response.RoomDeleted)

	// the state did not survive the room
	rejoined := join(t, s, "room1", "dave")
	assert.Nil(t, rejoined.State)
	assert.Equal(t, rejoined.ParticipantId, rejoined.HostId)
}

func TestJoinRefreshesExpiringURL(t *testing.T) {
	resolver := newFakeResolver()
	resolver.playbackExpiry = 30 * time.Second
	s := newTestService(resolver)
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	require.NoError(t, err)

	// the installed url expires in 30s, inside the refresh buffer
	second := join(t, s, "room1", "bob")
	require.NotNil(t, second.State)
	assert.Contains(t, second.State.VideoURL, "refreshed")
	assert.Equal(t, 1, resolver.refreshCalls)

	// the refreshed url was persisted, the next join reuses it
	third := join(t, s, "room1", "carol")
	require.NotNil(t, third.State)
	assert.Equal(t, 1, resolver.refreshCalls)
}

func TestJoinKeepsFreshURL(t *testing.T) {
	resolver := newFakeResolver()
	s := newTestService(resolver)
	ctx := context.Background()

	host := join(t, s, "room1", "alice")
	_, err := s.SetVideo(ctx, &SetVideoParams{
		VideoId:  testVideoId,
		SenderId: host.ParticipantId,
		RoomId:   "room1",
	})
	require.NoError(t, err)

	second := join(t, s, "room1", "bob")
	require.NotNil(t, second.State)
	assert.Contains(t, second.State.VideoURL, "signed")
	assert.Zero(t, resolver.refreshCalls)
}
