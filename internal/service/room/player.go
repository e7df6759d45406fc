package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type SetVideoParams struct {
	VideoId   string
	StartTime float64
	SenderId  string
	RoomId    string
}

type SetVideoResponse struct {
	State State
	Conns []*websocket.Conn
}

// SetVideo resolves a video and installs it as the room's playback
// state, paused at the start position. The host generation is captured
// before the resolver suspension and re-checked on write: a call that
// lost the race to a host change is discarded, not retried.
func (s service) SetVideo(ctx context.Context, params *SetVideoParams) (SetVideoResponse, error) {
	hostId, generation, err := s.roomRepo.GetHostId(ctx, params.RoomId)
	if err != nil {
		return SetVideoResponse{}, fmt.Errorf("failed to get host: %w", err)
	}
	if hostId != params.SenderId {
		return SetVideoResponse{}, ErrNotHost
	}

	record, playback, err := s.resolver.Resolve(ctx, params.VideoId)
	if err != nil {
		return SetVideoResponse{}, fmt.Errorf("failed to resolve video: %w", err)
	}

	startTime := params.StartTime
	if startTime < 0 {
		startTime = 0
	}

	state := room.PlaybackState{
		VideoId:      params.VideoId,
		VideoURL:     playback.URL,
		VideoName:    record.Name,
		Size:         record.Size,
		CurrentTime:  startTime,
		IsPaused:     true,
		PlaybackRate: 1,
		UpdatedAt:    time.Now().UnixMilli(),
		Status:       record.Status,
		ObjectKey:    record.ObjectKey,
		URLExpiresAt: playback.ExpiresAt,
	}

	if err := s.roomRepo.SetState(ctx, &room.SetStateParams{
		State:      state,
		Generation: generation,
		RoomId:     params.RoomId,
	}); err != nil {
		if errors.Is(err, room.ErrStaleGeneration) {
			return SetVideoResponse{}, ErrStaleAuthority
		}
		return SetVideoResponse{}, fmt.Errorf("failed to set state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SetVideoResponse{}, err
	}

	return SetVideoResponse{
		State: presentState(state),
		Conns: conns,
	}, nil
}

type ApplyHostUpdateParams struct {
	CurrentTime  *float64
	IsPaused     *bool
	PlaybackRate *float64
	SenderId     string
	RoomId       string
}

type ApplyHostUpdateResponse struct {
	State State
	Conns []*websocket.Conn
}

// ApplyHostUpdate merges the host's observed player state into the
// stored snapshot and returns it for broadcast to non-host members.
func (s service) ApplyHostUpdate(ctx context.Context, params *ApplyHostUpdateParams) (ApplyHostUpdateResponse, error) {
	hostId, generation, err := s.roomRepo.GetHostId(ctx, params.RoomId)
	if err != nil {
		return ApplyHostUpdateResponse{}, fmt.Errorf("failed to get host: %w", err)
	}
	if hostId != params.SenderId {
		return ApplyHostUpdateResponse{}, ErrNotHost
	}

	updated, err := s.roomRepo.UpdateState(ctx, &room.UpdateStateParams{
		CurrentTime:  params.CurrentTime,
		IsPaused:     params.IsPaused,
		PlaybackRate: params.PlaybackRate,
		UpdatedAt:    time.Now().UnixMilli(),
		Generation:   generation,
		RoomId:       params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrStaleGeneration) {
			return ApplyHostUpdateResponse{}, ErrStaleAuthority
		}
		if errors.Is(err, room.ErrStateNotFound) {
			return ApplyHostUpdateResponse{}, ErrNoState
		}
		return ApplyHostUpdateResponse{}, fmt.Errorf("failed to update state: %w", err)
	}

	if s.resolver.EnsureFresh(ctx, &updated) {
		if err := s.roomRepo.UpdateStateURL(ctx, &room.UpdateStateURLParams{
			VideoURL:     updated.VideoURL,
			URLExpiresAt: updated.URLExpiresAt,
			RoomId:       params.RoomId,
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to persist refreshed url", "error", err)
		}
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return ApplyHostUpdateResponse{}, err
	}

	return ApplyHostUpdateResponse{
		State: presentState(updated),
		Conns: conns,
	}, nil
}
