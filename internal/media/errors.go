package media

import "errors"

var (
	ErrVideoUnavailable = errors.New("video unavailable")
	ErrUploadTooLarge   = errors.New("upload exceeds size limit")
)
