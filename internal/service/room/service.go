package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/media"
	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/internal/repository/video"
)

var (
	ErrNotHost        = errors.New("sender is not host")
	ErrStaleAuthority = errors.New("host authority changed")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNoState        = errors.New("no playback state")
)

type iRoomRepo interface {
	AddParticipant(ctx context.Context, params *room.AddParticipantParams) (room.AddParticipantResult, error)
	RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) (room.RemoveParticipantResult, error)
	SetHost(ctx context.Context, params *room.SetHostParams) (room.SetHostResult, error)
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	GetHostId(ctx context.Context, roomId string) (string, int64, error)
	GetState(ctx context.Context, roomId string) (room.PlaybackState, error)
	SetState(ctx context.Context, params *room.SetStateParams) error
	UpdateState(ctx context.Context, params *room.UpdateStateParams) (room.PlaybackState, error)
	UpdateStateURL(ctx context.Context, params *room.UpdateStateURLParams) error
}

type iConnRepo interface {
	Add(conn *websocket.Conn, participantId string) error
	RemoveByParticipantId(participantId string) (*websocket.Conn, error)
	GetConn(participantId string) (*websocket.Conn, error)
}

type iMediaResolver interface {
	Resolve(ctx context.Context, videoId string) (video.Record, media.Playback, error)
	EnsureFresh(ctx context.Context, state *room.PlaybackState) bool
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	resolver iMediaResolver
	logger   *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, resolver iMediaResolver, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		resolver: resolver,
		logger:   logger,
	}
}
