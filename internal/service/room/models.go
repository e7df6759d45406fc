package room

import "github.com/watchroom/server/internal/repository/room"

// State is the playback snapshot as exposed to clients. The raw object
// key and the URL expiry stay server-side; VideoURL is always resolved
// before a State is built.
type State struct {
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

func presentState(st room.PlaybackState) State {
	return State{
		VideoId:      st.VideoId,
		VideoURL:     st.VideoURL,
		VideoName:    st.VideoName,
		Size:         st.Size,
		CurrentTime:  st.CurrentTime,
		IsPaused:     st.IsPaused,
		PlaybackRate: st.PlaybackRate,
		UpdatedAt:    st.UpdatedAt,
		Status:       st.Status,
	}
}
