package controller

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/wsrouter"
)

// inbound message types
const (
	inputAlive       = "ALIVE"
	inputRequestHost = "REQUEST_HOST"
	inputSetVideo    = "SET_VIDEO"
	inputHostUpdate  = "HOST_UPDATE"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.messageIdWSMw)
	mux.Use(c.loggerWSMw)

	wsrouter.Handle(mux, inputAlive, c.handleAlive)
	wsrouter.Handle(mux, inputRequestHost, c.handleRequestHost)
	wsrouter.Handle(mux, inputSetVideo, c.handleSetVideo)
	wsrouter.Handle(mux, inputHostUpdate, c.handleHostUpdate)

	return mux
}

func (c controller) messageIdWSMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("message_id", c.generateTimeBasedId()))

		return next(ctx, conn, payload)
	}
}

func (c controller) loggerWSMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		c.logger.DebugContext(ctx, "handling websocket message",
			"type", wsrouter.GetMessageTypeFromCtx(ctx),
			"room_id", c.getRoomIdFromCtx(ctx),
			"participant_id", c.getParticipantIdFromCtx(ctx),
		)

		return next(ctx, conn, payload)
	}
}
