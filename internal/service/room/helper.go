package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/maps"

	"github.com/watchroom/server/internal/repository/room"
)

func (s service) getConnsByRoomId(ctx context.Context, roomId string, exclude ...string) ([]*websocket.Conn, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	participantIds := maps.Keys(rm.Participants)
	conns := make([]*websocket.Conn, 0, len(participantIds))
	for _, participantId := range participantIds {
		if _, ok := excluded[participantId]; ok {
			continue
		}

		conn, err := s.connRepo.GetConn(participantId)
		if err != nil {
			// participant is mid-join or mid-leave, skip it
			s.logger.DebugContext(ctx, "no conn for participant", "participant_id", participantId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

// freshState reads the room's state for sending to a client, refreshing
// the playback URL first when it is close to expiry. Returns nil when
// the room has no state yet.
func (s service) freshState(ctx context.Context, roomId string) (*State, error) {
	st, err := s.roomRepo.GetState(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrStateNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	if s.resolver.EnsureFresh(ctx, &st) {
		if err := s.roomRepo.UpdateStateURL(ctx, &room.UpdateStateURLParams{
			VideoURL:     st.VideoURL,
			URLExpiresAt: st.URLExpiresAt,
			RoomId:       roomId,
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to persist refreshed url", "error", err)
		}
	}

	out := presentState(st)

	return &out, nil
}
