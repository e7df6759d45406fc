package client

// StatePayload mirrors the state object the server broadcasts in
// VIDEO_LOADED and SYNC_STATE messages.
type StatePayload struct {
	VideoId      string  `json:"video_id"`
	VideoURL     string  `json:"video_url"`
	VideoName    string  `json:"video_name"`
	Size         int64   `json:"size"`
	CurrentTime  float64 `json:"current_time"`
	IsPaused     bool    `json:"is_paused"`
	PlaybackRate float64 `json:"playback_rate"`
	UpdatedAt    int64   `json:"updated_at"`
	Status       string  `json:"status"`
}

// HostUpdatePayload is the partial update a host sends after observing
// its local player. Nil fields are left unchanged by the server.
type HostUpdatePayload struct {
	CurrentTime  *float64 `json:"current_time,omitempty"`
	IsPaused     *bool    `json:"is_paused,omitempty"`
	PlaybackRate *float64 `json:"playback_rate,omitempty"`
}
