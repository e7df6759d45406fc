package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/internal/repository/video"
)

const listPageSize = 200

type iRecordRepo interface {
	SetRecord(ctx context.Context, params *video.SetRecordParams) error
	GetRecord(ctx context.Context, videoId string) (video.Record, error)
	UpdateRecordStatus(ctx context.Context, videoId string, status string) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	KeyPrefix      string
	PlaybackExpiry time.Duration
	UploadExpiry   time.Duration
	RefreshBuffer  time.Duration
	MaxUploadBytes int64
}

// Resolver maps video ids to time-boxed playable URLs and keeps
// URLs handed to clients fresh. Resolved records are cached so repeat
// lookups do not hit the object store.
type Resolver struct {
	backend   Backend
	records   iRecordRepo
	generator iGenerator
	cfg       Config
	logger    *slog.Logger
}

func NewResolver(backend Backend, records iRecordRepo, generator iGenerator, cfg Config, logger *slog.Logger) *Resolver {
	if !strings.HasSuffix(cfg.KeyPrefix, "/") {
		cfg.KeyPrefix += "/"
	}

	return &Resolver{
		backend:   backend,
		records:   records,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

type Playback struct {
	URL       string
	ExpiresAt int64
}

func (r *Resolver) playback(ctx context.Context, objectKey string) (Playback, error) {
	url, err := r.backend.PresignGet(ctx, objectKey, r.cfg.PlaybackExpiry)
	if err != nil {
		return Playback{}, fmt.Errorf("failed to presign playback url: %w", err)
	}

	return Playback{
		URL:       url,
		ExpiresAt: time.Now().Add(r.cfg.PlaybackExpiry).UnixMilli(),
	}, nil
}

// ResolveRecord returns the record for a video id, consulting the cache
// first and falling back to a prefix listing plus a head request.
func (r *Resolver) ResolveRecord(ctx context.Context, videoId string) (video.Record, error) {
	if videoId == "" {
		return video.Record{}, ErrVideoUnavailable
	}

	cached, err := r.records.GetRecord(ctx, videoId)
	if err == nil && cached.Status == video.StatusReady {
		return cached, nil
	}
	if err != nil && !errors.Is(err, video.ErrRecordNotFound) {
		r.logger.WarnContext(ctx, "video record cache read failed", "error", err)
	}

	objectKey := cached.ObjectKey
	originalName := cached.Name
	if objectKey == "" {
		listed, err := r.backend.List(ctx, r.cfg.KeyPrefix+videoId+"/", "", 1)
		if err != nil {
			return video.Record{}, fmt.Errorf("failed to list video objects: %w", err)
		}
		if len(listed.Objects) == 0 {
			return video.Record{}, ErrVideoUnavailable
		}

		parsed, ok := ParseObjectKey(r.cfg.KeyPrefix, listed.Objects[0].Key)
		if !ok {
			return video.Record{}, ErrVideoUnavailable
		}
		objectKey = parsed.ObjectKey
		originalName = parsed.OriginalName
	}

	info, err := r.backend.Head(ctx, objectKey)
	if err != nil {
		if errors.Is(err, ErrVideoUnavailable) {
			return video.Record{}, ErrVideoUnavailable
		}
		return video.Record{}, fmt.Errorf("failed to head video object: %w", err)
	}

	if originalName == "" {
		originalName = SanitizeFilename("")
	}
	mimeType := info.ContentType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	record := video.Record{
		ObjectKey:    objectKey,
		Name:         originalName,
		MimeType:     mimeType,
		Size:         info.ContentLength,
		LastModified: info.LastModified.UnixMilli(),
		ETag:         info.ETag,
		Status:       video.StatusReady,
		UploadedAt:   time.Now().UnixMilli(),
	}
	if err := r.records.SetRecord(ctx, &video.SetRecordParams{VideoId: videoId, Record: record}); err != nil {
		r.logger.WarnContext(ctx, "video record cache write failed", "error", err)
	}

	return record, nil
}

// Resolve returns the record and a fresh playback URL for a video id.
func (r *Resolver) Resolve(ctx context.Context, videoId string) (video.Record, Playback, error) {
	record, err := r.ResolveRecord(ctx, videoId)
	if err != nil {
		return video.Record{}, Playback{}, err
	}

	playback, err := r.playback(ctx, record.ObjectKey)
	if err != nil {
		return video.Record{}, Playback{}, err
	}

	return record, playback, nil
}

// EnsureFresh refreshes the state's playback URL in place when the
// stored expiry falls inside the refresh buffer. A refresh failure is
// logged and swallowed: the stale URL is still handed out rather than
// blocking the read. Returns whether the URL was replaced.
func (r *Resolver) EnsureFresh(ctx context.Context, state *room.PlaybackState) bool {
	if state == nil || state.ObjectKey == "" {
		return false
	}

	now := time.Now().UnixMilli()
	if state.URLExpiresAt != 0 && now < state.URLExpiresAt-r.cfg.RefreshBuffer.Milliseconds() {
		return false
	}

	playback, err := r.playback(ctx, state.ObjectKey)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to refresh playback url", "error", err, "object_key", state.ObjectKey)
		return false
	}

	state.VideoURL = playback.URL
	state.URLExpiresAt = playback.ExpiresAt

	return true
}

type CatalogItem struct {
	VideoId      string `json:"video_id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
}

func (r *Resolver) ListCatalog(ctx context.Context, limit int) ([]CatalogItem, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > listPageSize {
		limit = listPageSize
	}

	items := make([]CatalogItem, 0, limit)
	marker := ""
	for len(items) < limit {
		pageSize := limit - len(items)
		if pageSize > listPageSize {
			pageSize = listPageSize
		}

		listed, err := r.backend.List(ctx, r.cfg.KeyPrefix, marker, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list videos: %w", err)
		}

		for _, obj := range listed.Objects {
			if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
				continue
			}
			parsed, ok := ParseObjectKey(r.cfg.KeyPrefix, obj.Key)
			if !ok {
				continue
			}

			items = append(items, CatalogItem{
				VideoId:      parsed.VideoId,
				Name:         parsed.OriginalName,
				Size:         obj.Size,
				LastModified: obj.LastModified.UnixMilli(),
			})
			if len(items) >= limit {
				break
			}
		}

		if !listed.Truncated || len(items) >= limit {
			break
		}
		marker = listed.NextMarker
	}

	return items, nil
}

type PresignUploadParams struct {
	OriginalName string
	ContentType  string
	SizeBytes    int64
}

type PresignUploadResult struct {
	VideoId   string
	ObjectKey string
	UploadURL string
	ExpiresAt int64
	Headers   map[string]string
}

func (r *Resolver) PresignUpload(ctx context.Context, params *PresignUploadParams) (PresignUploadResult, error) {
	if params.SizeBytes > r.cfg.MaxUploadBytes {
		return PresignUploadResult{}, ErrUploadTooLarge
	}

	mimeType := params.ContentType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	videoId := r.generator.GenerateRandomString(12)
	objectKey := BuildObjectKey(r.cfg.KeyPrefix, videoId, params.OriginalName)

	uploadURL, err := r.backend.PresignPut(ctx, objectKey, mimeType, r.cfg.UploadExpiry)
	if err != nil {
		return PresignUploadResult{}, fmt.Errorf("failed to presign upload url: %w", err)
	}

	record := video.Record{
		ObjectKey: objectKey,
		Name:      SanitizeFilename(params.OriginalName),
		MimeType:  mimeType,
		Size:      params.SizeBytes,
		Status:    video.StatusPending,
	}
	if err := r.records.SetRecord(ctx, &video.SetRecordParams{VideoId: videoId, Record: record}); err != nil {
		r.logger.WarnContext(ctx, "video record cache write failed", "error", err)
	}

	headers := map[string]string{}
	if mimeType != "" {
		headers["Content-Type"] = mimeType
	}

	return PresignUploadResult{
		VideoId:   videoId,
		ObjectKey: objectKey,
		UploadURL: uploadURL,
		ExpiresAt: time.Now().Add(r.cfg.UploadExpiry).UnixMilli(),
		Headers:   headers,
	}, nil
}

type PlaybackInfo struct {
	VideoId   string `json:"video_id"`
	VideoURL  string `json:"video_url"`
	ExpiresAt int64  `json:"expires_at"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type"`
}

// CompleteUpload verifies the uploaded object exists and flips the
// cached record to ready, returning a playback URL for it.
func (r *Resolver) CompleteUpload(ctx context.Context, videoId string) (PlaybackInfo, error) {
	cached, err := r.records.GetRecord(ctx, videoId)
	if err == nil && cached.Status == video.StatusPending {
		if _, err := r.backend.Head(ctx, cached.ObjectKey); err != nil {
			if errors.Is(err, ErrVideoUnavailable) {
				return PlaybackInfo{}, ErrVideoUnavailable
			}
			return PlaybackInfo{}, fmt.Errorf("failed to head video object: %w", err)
		}
		if err := r.records.UpdateRecordStatus(ctx, videoId, video.StatusReady); err != nil {
			r.logger.WarnContext(ctx, "video record cache write failed", "error", err)
		}
	}

	return r.PlaybackInfo(ctx, videoId)
}

func (r *Resolver) PlaybackInfo(ctx context.Context, videoId string) (PlaybackInfo, error) {
	record, playback, err := r.Resolve(ctx, videoId)
	if err != nil {
		return PlaybackInfo{}, err
	}

	return PlaybackInfo{
		VideoId:   videoId,
		VideoURL:  playback.URL,
		ExpiresAt: playback.ExpiresAt,
		Name:      record.Name,
		Size:      record.Size,
		MimeType:  record.MimeType,
	}, nil
}
