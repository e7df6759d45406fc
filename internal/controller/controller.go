package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/media"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/validator"
	"github.com/watchroom/server/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(ctx context.Context, params *room.JoinRoomParams) (room.JoinRoomResponse, error)
	DisconnectParticipant(ctx context.Context, params *room.DisconnectParticipantParams) (room.DisconnectParticipantResponse, error)
	RequestHost(ctx context.Context, params *room.RequestHostParams) (room.RequestHostResponse, error)
	SetVideo(ctx context.Context, params *room.SetVideoParams) (room.SetVideoResponse, error)
	ApplyHostUpdate(ctx context.Context, params *room.ApplyHostUpdateParams) (room.ApplyHostUpdateResponse, error)
}

type iMediaService interface {
	PresignUpload(ctx context.Context, params *media.PresignUploadParams) (media.PresignUploadResult, error)
	CompleteUpload(ctx context.Context, videoId string) (media.PlaybackInfo, error)
	PlaybackInfo(ctx context.Context, videoId string) (media.PlaybackInfo, error)
	ListCatalog(ctx context.Context, limit int) ([]media.CatalogItem, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type controller struct {
	roomService  iRoomService
	mediaService iMediaService
	generator    iGenerator
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	wsmux        *wsrouter.WSRouter
	logger       *slog.Logger
}

func NewController(roomService iRoomService, mediaService iMediaService, generator iGenerator, logger *slog.Logger) *controller {
	c := &controller{
		roomService:  roomService,
		mediaService: mediaService,
		generator:    generator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
