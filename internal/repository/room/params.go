package room

type AddParticipantParams struct {
	ParticipantId string
	DisplayName   string
	JoinedAt      int64
	RoomId        string
}

type AddParticipantResult struct {
	HostId     string
	Generation int64
}

type RemoveParticipantParams struct {
	ParticipantId string
	RoomId        string
}

type RemoveParticipantResult struct {
	WasHost     bool
	NewHostId   string
	Generation  int64
	RoomDeleted bool
}

type SetHostParams struct {
	ParticipantId string
	RoomId        string
}

type SetHostResult struct {
	Changed    bool
	Generation int64
}

type SetStateParams struct {
	State      PlaybackState
	Generation int64
	RoomId     string
}

type UpdateStateParams struct {
	CurrentTime  *float64
	IsPaused     *bool
	PlaybackRate *float64
	UpdatedAt    int64
	Generation   int64
	RoomId       string
}

type UpdateStateURLParams struct {
	VideoURL     string
	URLExpiresAt int64
	RoomId       string
}
