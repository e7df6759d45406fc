package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type rawHandler func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type WSRouter struct {
	routes      map[string]rawHandler
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]rawHandler)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// Handle registers a handler with a typed payload. The payload is
// unmarshalled before the middleware chain runs, so middlewares see the
// decoded value.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	wrapped := func(ctx context.Context, conn *websocket.Conn, payload any) error {
		input, ok := payload.(T)
		if !ok {
			return fmt.Errorf("unexpected payload type for %q", messageType)
		}

		return handler(ctx, conn, input)
	}

	r.routes[messageType] = func(ctx context.Context, conn *websocket.Conn, raw json.RawMessage) error {
		var input T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &input); err != nil {
				return fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		next := HandlerFunc[any](wrapped)
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			next = r.middlewares[i](next)
		}

		return next(ctx, conn, input)
	}
}

// ServeConn reads messages from the connection until the read fails or
// the context is cancelled. Handler errors go to onError and do not
// terminate the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn, onError func(ctx context.Context, err error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]string{"error": "unknown message type"})
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil && onError != nil {
			onError(msgCtx, err)
		}
	}
}
