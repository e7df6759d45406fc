package video

import "errors"

var ErrRecordNotFound = errors.New("video record not found")

const (
	StatusPending = "pending"
	StatusReady   = "ready"
)

// Record describes one uploaded video as known to the server. It is a
// cache entry: the object store remains the source of truth.
type Record struct {
	ObjectKey    string `redis:"object_key"`
	Name         string `redis:"name"`
	MimeType     string `redis:"mime_type"`
	Size         int64  `redis:"size"`
	LastModified int64  `redis:"last_modified"`
	ETag         string `redis:"etag"`
	Status       string `redis:"status"`
	UploadedAt   int64  `redis:"uploaded_at"`
}

type SetRecordParams struct {
	VideoId string
	Record  Record
}
