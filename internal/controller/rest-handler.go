package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/watchroom/server/internal/media"
	"github.com/watchroom/server/pkg/rest"
)

const roomIdLength = 6

type presignVideoInput struct {
	OriginalName string `json:"original_name" validate:"required,max=255"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size_bytes" validate:"gte=0"`
}

func (c controller) presignVideo(w http.ResponseWriter, r *http.Request) {
	var req presignVideoInput
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	result, err := c.mediaService.PresignUpload(r.Context(), &media.PresignUploadParams{
		OriginalName: req.OriginalName,
		ContentType:  req.ContentType,
		SizeBytes:    req.SizeBytes,
	})
	if err != nil {
		if errors.Is(err, media.ErrUploadTooLarge) {
			rest.WriteJSON(w, http.StatusRequestEntityTooLarge, rest.Envelope{"error": "upload exceeds the configured size limit"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to presign upload", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to generate upload url"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"video_id":   result.VideoId,
		"object_key": result.ObjectKey,
		"upload_url": result.UploadURL,
		"expires_at": result.ExpiresAt,
		"headers":    result.Headers,
	}})
}

func (c controller) completeVideo(w http.ResponseWriter, r *http.Request) {
	videoId := chi.URLParam(r, "video-id")
	if videoId == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "video id is required"})
		return
	}

	info, err := c.mediaService.CompleteUpload(r.Context(), videoId)
	if err != nil {
		if errors.Is(err, media.ErrVideoUnavailable) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "uploaded video not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to complete upload", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to generate playback url"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": info})
}

func (c controller) listVideos(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	items, err := c.mediaService.ListCatalog(r.Context(), limit)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to list videos", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to list videos"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"items": items})
}

func (c controller) videoPlayback(w http.ResponseWriter, r *http.Request) {
	videoId := chi.URLParam(r, "video-id")

	info, err := c.mediaService.PlaybackInfo(r.Context(), videoId)
	if err != nil {
		if errors.Is(err, media.ErrVideoUnavailable) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "video not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get playback info", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to generate playback url"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": info})
}

func (c controller) newRoom(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"room_id": c.generator.GenerateRandomString(roomIdLength)})
}
