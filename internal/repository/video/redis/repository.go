package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/watchroom/server/internal/repository/video"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getRecordKey(videoId string) string {
	return "video:" + videoId
}

func (r repo) SetRecord(ctx context.Context, params *video.SetRecordParams) error {
	recordKey := r.getRecordKey(params.VideoId)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, recordKey, params.Record)
	pipe.Expire(ctx, recordKey, r.expireDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set video record: %w", err)
	}

	return nil
}

func (r repo) GetRecord(ctx context.Context, videoId string) (video.Record, error) {
	recordKey := r.getRecordKey(videoId)

	res, err := r.rc.Exists(ctx, recordKey).Result()
	if err != nil {
		return video.Record{}, fmt.Errorf("failed to check if video record exists: %w", err)
	}
	if res == 0 {
		return video.Record{}, video.ErrRecordNotFound
	}

	var record video.Record
	if err := r.rc.HGetAll(ctx, recordKey).Scan(&record); err != nil {
		return video.Record{}, fmt.Errorf("failed to get video record: %w", err)
	}

	r.rc.Expire(ctx, recordKey, r.expireDuration)

	return record, nil
}

func (r repo) UpdateRecordStatus(ctx context.Context, videoId string, status string) error {
	recordKey := r.getRecordKey(videoId)

	res, err := r.rc.Exists(ctx, recordKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check if video record exists: %w", err)
	}
	if res == 0 {
		return video.ErrRecordNotFound
	}

	if err := r.rc.HSet(ctx, recordKey, "status", status).Err(); err != nil {
		return fmt.Errorf("failed to update video record status: %w", err)
	}

	r.rc.Expire(ctx, recordKey, r.expireDuration)

	return nil
}
