package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrStateNotFound       = errors.New("playback state not found")
	ErrStaleGeneration     = errors.New("host generation advanced")
)
