package room

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type JoinRoomParams struct {
	DisplayName string
	Conn        *websocket.Conn
	RoomId      string
}

type JoinRoomResponse struct {
	ParticipantId string
	HostId        string
	State         *State
	JoinedAt      int64
	Conns         []*websocket.Conn
}

// JoinRoom adds a participant to the room, creating it when absent. The
// first participant of a room becomes its host.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	participantId := uuid.NewString()
	joinedAt := time.Now().UnixMilli()

	addResult, err := s.roomRepo.AddParticipant(ctx, &room.AddParticipantParams{
		ParticipantId: participantId,
		DisplayName:   params.DisplayName,
		JoinedAt:      joinedAt,
		RoomId:        params.RoomId,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add participant: %w", err)
	}

	if err := s.connRepo.Add(params.Conn, participantId); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add conn: %w", err)
	}

	state, err := s.freshState(ctx, params.RoomId)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read state on join", "error", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, participantId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		ParticipantId: participantId,
		HostId:        addResult.HostId,
		State:         state,
		JoinedAt:      joinedAt,
		Conns:         conns,
	}, nil
}

type DisconnectParticipantParams struct {
	ParticipantId string
	RoomId        string
}

type DisconnectParticipantResponse struct {
	Conns       []*websocket.Conn
	WasHost     bool
	NewHostId   string
	State       *State
	RoomDeleted bool
}

// DisconnectParticipant removes a participant. A departing host hands
// the role to the oldest remaining participant; an emptied room is
// deleted, its state discarded.
func (s service) DisconnectParticipant(ctx context.Context, params *DisconnectParticipantParams) (DisconnectParticipantResponse, error) {
	// the caller owns the socket and closes it; only the mapping is
	// dropped here
	if _, err := s.connRepo.RemoveByParticipantId(params.ParticipantId); err != nil {
		s.logger.DebugContext(ctx, "no conn to remove", "participant_id", params.ParticipantId)
	}

	removeResult, err := s.roomRepo.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		ParticipantId: params.ParticipantId,
		RoomId:        params.RoomId,
	})
	if err != nil {
		return DisconnectParticipantResponse{}, fmt.Errorf("failed to remove participant: %w", err)
	}

	if removeResult.RoomDeleted {
		return DisconnectParticipantResponse{
			WasHost:     removeResult.WasHost,
			RoomDeleted: true,
		}, nil
	}

	response := DisconnectParticipantResponse{
		WasHost:   removeResult.WasHost,
		NewHostId: removeResult.NewHostId,
	}

	if removeResult.WasHost {
		state, err := s.freshState(ctx, params.RoomId)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to read state on failover", "error", err)
		}
		response.State = state
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return DisconnectParticipantResponse{}, err
	}
	response.Conns = conns

	return response, nil
}
