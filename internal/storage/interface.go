package storage

import "context"

// ImageStore abstracts the object storage bucket holding post images.
// Implemented by S3Uploader; tests substitute a mock.
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, contentType, userID string) (*UploadResult, error)
	DeleteObject(ctx context.Context, key string) error
}

// Ensure S3Uploader implements ImageStore
var _ ImageStore = (*S3Uploader)(nil)
