package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type RequestHostParams struct {
	SenderId string
	RoomId   string
}

type RequestHostResponse struct {
	HostId  string
	Changed bool
	State   *State
	Conns   []*websocket.Conn
}

// RequestHost reassigns the host role to the requester. There is no
// arbitration: the last requester wins. When the requester is already
// host nothing is broadcast.
func (s service) RequestHost(ctx context.Context, params *RequestHostParams) (RequestHostResponse, error) {
	setResult, err := s.roomRepo.SetHost(ctx, &room.SetHostParams{
		ParticipantId: params.SenderId,
		RoomId:        params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return RequestHostResponse{}, ErrRoomNotFound
		}
		return RequestHostResponse{}, fmt.Errorf("failed to set host: %w", err)
	}

	response := RequestHostResponse{
		HostId:  params.SenderId,
		Changed: setResult.Changed,
	}

	state, err := s.freshState(ctx, params.RoomId)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read state on host request", "error", err)
	}
	response.State = state

	if setResult.Changed {
		conns, err := s.getConnsByRoomId(ctx, params.RoomId)
		if err != nil {
			return RequestHostResponse{}, err
		}
		response.Conns = conns
	}

	return response, nil
}
