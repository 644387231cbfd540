package storage

import (
	"context"
	"errors"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores dispute evidence attachments (screenshots, clips).
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ErrStorageDisabled is returned when no object storage is configured.
var ErrStorageDisabled = errors.New("file storage is not configured")

type disabledUploader struct{}

// NewDisabledUploader is the fallback when R2 credentials are absent.
func NewDisabledUploader() FileUploader {
	return disabledUploader{}
}

func (disabledUploader) Upload(context.Context, string, string, io.Reader) (*UploadResult, error) {
	return nil, ErrStorageDisabled
}

func (disabledUploader) Delete(context.Context, string) error { return ErrStorageDisabled }

func (disabledUploader) GetPublicURL(string) string { return "" }
