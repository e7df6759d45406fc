package media

import (
	"context"
	"time"
)

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type ObjectInfo struct {
	ContentType   string
	ContentLength int64
	LastModified  time.Time
	ETag          string
}

type ListResult struct {
	Objects    []Object
	NextMarker string
	Truncated  bool
}

// Backend is the object-store capability the resolver is built on:
// given a key, produce a time-boxed URL or object metadata.
type Backend interface {
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error)
	Head(ctx context.Context, key string) (ObjectInfo, error)
	List(ctx context.Context, prefix string, marker string, maxKeys int) (ListResult, error)
}
