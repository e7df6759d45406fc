package room

type Participant struct {
	DisplayName string
	JoinedAt    int64
}

// PlaybackState is the host-owned snapshot of what the room is playing.
// ObjectKey and URLExpiresAt are internal to the server and are stripped
// before the state is handed to a client.
type PlaybackState struct {
	VideoId      string
	VideoURL     string
	VideoName    string
	Size         int64
	CurrentTime  float64
	IsPaused     bool
	PlaybackRate float64
	UpdatedAt    int64
	Status       string
	ObjectKey    string
	URLExpiresAt int64
}

type Room struct {
	HostId       string
	Generation   int64
	Participants map[string]Participant
	State        *PlaybackState
}
