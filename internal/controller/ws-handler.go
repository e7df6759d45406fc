package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// outbound message types
const (
	outputRoomJoined        = "ROOM_JOINED"
	outputParticipantJoined = "PARTICIPANT_JOINED"
	outputParticipantLeft   = "PARTICIPANT_LEFT"
	outputHostChanged       = "HOST_CHANGED"
	outputVideoLoaded       = "VIDEO_LOADED"
	outputSyncState         = "SYNC_STATE"
)

type EmptyStruct struct{}

func (es *EmptyStruct) UnmarshalJSON([]byte) error {
	return nil
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, out *Output) error {
	if conn == nil {
		return nil
	}
	if err := conn.WriteJSON(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out.Type, err)
	}

	return nil
}

func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, out *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(out); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "type", out.Type, "error", err)
		}
	}
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := strings.TrimSpace(chi.URLParam(r, "room-id"))
	if roomId == "" {
		c.logger.DebugContext(r.Context(), "empty room id")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	displayName := strings.TrimSpace(r.URL.Query().Get("display-name"))
	if displayName == "" {
		displayName = "Guest"
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	joinResponse, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		DisplayName: displayName,
		Conn:        conn,
		RoomId:      roomId,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to join room", "error", err)
		return
	}
	defer c.disconnect(r.Context(), joinResponse.ParticipantId, roomId)

	if err := c.writeToConn(r.Context(), conn, &Output{
		Type: outputRoomJoined,
		Payload: map[string]any{
			"room_id":        roomId,
			"host_id":        joinResponse.HostId,
			"participant_id": joinResponse.ParticipantId,
			"state":          joinResponse.State,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write room joined", "error", err)
		return
	}

	c.broadcast(r.Context(), joinResponse.Conns, &Output{
		Type: outputParticipantJoined,
		Payload: map[string]any{
			"participant_id": joinResponse.ParticipantId,
			"display_name":   displayName,
		},
	})

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, participantIdCtxKey, joinResponse.ParticipantId)

	if err := c.wsmux.ServeConn(ctx, conn, c.onHandlerError); err != nil {
		c.logger.DebugContext(r.Context(), "conn closed", "error", err)
	}
}

func (c controller) onHandlerError(ctx context.Context, err error) {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)
}

func (c controller) disconnect(ctx context.Context, participantId, roomId string) {
	disconnectResponse, err := c.roomService.DisconnectParticipant(ctx, &room.DisconnectParticipantParams{
		ParticipantId: participantId,
		RoomId:        roomId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect participant", "error", err)
		return
	}

	if disconnectResponse.RoomDeleted {
		return
	}

	c.broadcast(ctx, disconnectResponse.Conns, &Output{
		Type: outputParticipantLeft,
		Payload: map[string]any{
			"participant_id": participantId,
		},
	})

	if disconnectResponse.WasHost {
		c.broadcast(ctx, disconnectResponse.Conns, &Output{
			Type: outputHostChanged,
			Payload: map[string]any{
				"host_id": disconnectResponse.NewHostId,
			},
		})

		if disconnectResponse.State != nil {
			c.broadcast(ctx, disconnectResponse.Conns, &Output{
				Type:    outputSyncState,
				Payload: disconnectResponse.State,
			})
		}
	}
}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyStruct) error {
	return nil
}

func (c controller) handleRequestHost(ctx context.Context, conn *websocket.Conn, _ EmptyStruct) error {
	roomId := c.getRoomIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	requestHostResponse, err := c.roomService.RequestHost(ctx, &room.RequestHostParams{
		SenderId: participantId,
		RoomId:   roomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return nil
		}
		return fmt.Errorf("failed to request host: %w", err)
	}

	if !requestHostResponse.Changed {
		return c.writeToConn(ctx, conn, &Output{
			Type: outputHostChanged,
			Payload: map[string]any{
				"host_id": requestHostResponse.HostId,
			},
		})
	}

	c.broadcast(ctx, requestHostResponse.Conns, &Output{
		Type: outputHostChanged,
		Payload: map[string]any{
			"host_id": requestHostResponse.HostId,
		},
	})

	if requestHostResponse.State != nil {
		return c.writeToConn(ctx, conn, &Output{
			Type:    outputSyncState,
			Payload: requestHostResponse.State,
		})
	}

	return nil
}

type SetVideoInput struct {
	VideoId   string  `json:"video_id"`
	StartTime float64 `json:"start_time"`
}

func (c controller) handleSetVideo(ctx context.Context, _ *websocket.Conn, input SetVideoInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	setVideoResponse, err := c.roomService.SetVideo(ctx, &room.SetVideoParams{
		VideoId:   input.VideoId,
		StartTime: input.StartTime,
		SenderId:  participantId,
		RoomId:    roomId,
	})
	if err != nil {
		// non-host, stale-authority, and unresolvable-video attempts are
		// dropped without a protocol error
		c.logger.DebugContext(ctx, "set video rejected", "error", err)
		return nil
	}

	c.broadcast(ctx, setVideoResponse.Conns, &Output{
		Type:    outputVideoLoaded,
		Payload: setVideoResponse.State,
	})

	return nil
}

type HostUpdateInput struct {
	CurrentTime  *float64 `json:"current_time"`
	IsPaused     *bool    `json:"is_paused"`
	PlaybackRate *float64 `json:"playback_rate"`
}

func (c controller) handleHostUpdate(ctx context.Context, _ *websocket.Conn, input HostUpdateInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	hostUpdateResponse, err := c.roomService.ApplyHostUpdate(ctx, &room.ApplyHostUpdateParams{
		CurrentTime:  input.CurrentTime,
		IsPaused:     input.IsPaused,
		PlaybackRate: input.PlaybackRate,
		SenderId:     participantId,
		RoomId:       roomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrNotHost) || errors.Is(err, room.ErrNoState) || errors.Is(err, room.ErrStaleAuthority) {
			c.logger.DebugContext(ctx, "host update rejected", "error", err)
			return nil
		}
		return fmt.Errorf("failed to apply host update: %w", err)
	}

	c.broadcast(ctx, hostUpdateResponse.Conns, &Output{
		Type:    outputSyncState,
		Payload: hostUpdateResponse.State,
	})

	return nil
}
