package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/connection"
)

type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
	}
}

func (r *repo) Add(conn *websocket.Conn, participantId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[participantId] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = participantId
	r.idList[participantId] = conn

	return nil
}

func (r *repo) RemoveByParticipantId(participantId string) (*websocket.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[participantId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, participantId)

	return conn, nil
}

func (r *repo) GetParticipantId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participantId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return participantId, nil
}

func (r *repo) GetConn(participantId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[participantId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
