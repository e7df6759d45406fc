package inmemory

import (
	"context"
	"sync"

	"github.com/watchroom/server/internal/repository/room"
)

// repo is the process-scoped room table. Rooms are created on first
// join and deleted when the last participant leaves; nothing survives
// a restart. Every host change bumps the room's generation counter so
// that mutations captured under an older generation can be rejected.
type repo struct {
	rooms map[string]*room.Room
	mu    sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		rooms: make(map[string]*room.Room),
	}
}

func (r *repo) AddParticipant(_ context.Context, params *room.AddParticipantParams) (room.AddParticipantResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		rm = &room.Room{
			Participants: make(map[string]room.Participant),
		}
		r.rooms[params.RoomId] = rm
	}

	rm.Participants[params.ParticipantId] = room.Participant{
		DisplayName: params.DisplayName,
		JoinedAt:    params.JoinedAt,
	}

	if rm.HostId == "" {
		rm.HostId = params.ParticipantId
		rm.Generation++
	}

	return room.AddParticipantResult{
		HostId:     rm.HostId,
		Generation: rm.Generation,
	}, nil
}

func (r *repo) RemoveParticipant(_ context.Context, params *room.RemoveParticipantParams) (room.RemoveParticipantResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		return room.RemoveParticipantResult{}, room.ErrRoomNotFound
	}

	if _, ok := rm.Participants[params.ParticipantId]; !ok {
		return room.RemoveParticipantResult{}, room.ErrParticipantNotFound
	}

	delete(rm.Participants, params.ParticipantId)

	wasHost := rm.HostId == params.ParticipantId
	if len(rm.Participants) == 0 {
		delete(r.rooms, params.RoomId)
		return room.RemoveParticipantResult{
			WasHost:     wasHost,
			RoomDeleted: true,
		}, nil
	}

	result := room.RemoveParticipantResult{WasHost: wasHost}
	if wasHost {
		rm.HostId = oldestParticipantId(rm.Participants)
		rm.Generation++
		result.NewHostId = rm.HostId
	}
	result.Generation = rm.Generation

	return result, nil
}

// oldestParticipantId picks the successor on host failover: earliest
// join time, participant id as the tie-break.
func oldestParticipantId(participants map[string]room.Participant) string {
	var winnerId string
	var winner room.Participant
	for id, p := range participants {
		if winnerId == "" || p.JoinedAt < winner.JoinedAt ||
			(p.JoinedAt == winner.JoinedAt && id < winnerId) {
			winnerId = id
			winner = p
		}
	}

	return winnerId
}

func (r *repo) SetHost(_ context.Context, params *room.SetHostParams) (room.SetHostResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		return room.SetHostResult{}, room.ErrRoomNotFound
	}

	if _, ok := rm.Participants[params.ParticipantId]; !ok {
		return room.SetHostResult{}, room.ErrParticipantNotFound
	}

	if rm.HostId == params.ParticipantId {
		return room.SetHostResult{Changed: false, Generation: rm.Generation}, nil
	}

	rm.HostId = params.ParticipantId
	rm.Generation++

	return room.SetHostResult{Changed: true, Generation: rm.Generation}, nil
}

func (r *repo) GetRoom(_ context.Context, roomId string) (room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomId]
	if !ok {
		return room.Room{}, room.ErrRoomNotFound
	}

	return copyRoom(rm), nil
}

func (r *repo) GetHostId(_ context.Context, roomId string) (string, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomId]
	if !ok {
		return "", 0, room.ErrRoomNotFound
	}

	return rm.HostId, rm.Generation, nil
}

func (r *repo) GetState(_ context.Context, roomId string) (room.PlaybackState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomId]
	if !ok {
		return room.PlaybackState{}, room.ErrRoomNotFound
	}

	if rm.State == nil {
		return room.PlaybackState{}, room.ErrStateNotFound
	}

	return *rm.State, nil
}

// SetState replaces the room's playback state. The write is rejected
// when the host generation has advanced past the one the caller
// captured before its resolver suspension.
func (r *repo) SetState(_ context.Context, params *room.SetStateParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	if rm.Generation != params.Generation {
		return room.ErrStaleGeneration
	}

	state := params.State
	if rm.State != nil && state.UpdatedAt < rm.State.UpdatedAt {
		state.UpdatedAt = rm.State.UpdatedAt
	}
	rm.State = &state

	return nil
}

func (r *repo) UpdateState(_ context.Context, params *room.UpdateStateParams) (room.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		return room.PlaybackState{}, room.ErrRoomNotFound
	}

	if rm.State == nil {
		return room.PlaybackState{}, room.ErrStateNotFound
	}

	if rm.Generation != params.Generation {
		return room.PlaybackState{}, room.ErrStaleGeneration
	}

	if params.CurrentTime != nil {
		rm.State.CurrentTime = *params.CurrentTime
	}
	if params.IsPaused != nil {
		rm.State.IsPaused = *params.IsPaused
	}
	if params.PlaybackRate != nil {
		rm.State.PlaybackRate = *params.PlaybackRate
	}
	if params.UpdatedAt > rm.State.UpdatedAt {
		rm.State.UpdatedAt = params.UpdatedAt
	}

	return *rm.State, nil
}

// UpdateStateURL writes a refreshed playback URL through to the stored
// state. Unlike SetState it is not generation-checked: a refresh is a
// resolver side effect, not a host mutation.
func (r *repo) UpdateStateURL(_ context.Context, params *room.UpdateStateURLParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	if rm.State == nil {
		return room.ErrStateNotFound
	}

	rm.State.VideoURL = params.VideoURL
	rm.State.URLExpiresAt = params.URLExpiresAt

	return nil
}

func copyRoom(rm *room.Room) room.Room {
	out := room.Room{
		HostId:       rm.HostId,
		Generation:   rm.Generation,
		Participants: make(map[string]room.Participant, len(rm.Participants)),
	}
	for id, p := range rm.Participants {
		out.Participants[id] = p
	}
	if rm.State != nil {
		state := *rm.State
		out.State = &state
	}

	return out
}
