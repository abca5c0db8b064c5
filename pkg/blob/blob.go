// Package blob stores uploaded media in an S3-compatible bucket, with an
// in-memory driver for development and tests.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

type Driver string

const (
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the object storage surface used by the media module.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Driver() Driver
}

var (
	ErrExists   = errors.New("blob: already exists")
	ErrNotFound = errors.New("blob: not found")
)
