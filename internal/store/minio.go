package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mkravets/tasktracker/internal/apperr"
)

// MaxAvatarBytes caps a single avatar image.
const MaxAvatarBytes = 2 << 20 // 2 MiB

// avatarExt maps the accepted avatar content types to object-key extensions.
var avatarExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// AvatarStore keeps user avatar images in a MinIO bucket. It owns the avatar
// rules end to end: accepted content types, the size cap, and the object-key
// layout (`<user_id>/<uuid><ext>`, the key stored on the user row).
type AvatarStore struct {
	client *minio.Client
	bucket string
}

func NewAvatarStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*AvatarStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &AvatarStore{client: client, bucket: bucket}, nil
}

// avatarObjectKey builds a fresh per-user object key, rejecting content types
// outside the accepted image set. Each upload gets a new uuid so a stale
// cached copy of the old key can never shadow the new image.
func avatarObjectKey(userID, contentType string) (string, error) {
	ext, ok := avatarExt[contentType]
	if !ok {
		return "", apperr.Validation(map[string]string{"avatar": "must be a PNG, JPEG, or WebP image"})
	}
	return path.Join(userID, uuid.New().String()+ext), nil
}

// Put validates the image against the accepted content types and the size
// cap, stores it under a fresh key for the user, and returns that key.
func (s *AvatarStore) Put(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	key, err := avatarObjectKey(userID, contentType)
	if err != nil {
		return "", err
	}
	if len(data) > MaxAvatarBytes {
		return "", apperr.Validation(map[string]string{"avatar": "must be at most 2 MiB"})
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", apperr.Persistence("avatar upload", err)
	}
	return key, nil
}

// Get retrieves the image bytes and the stored content type.
func (s *AvatarStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", apperr.Persistence("avatar download", err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, "", apperr.Persistence("avatar download", err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", apperr.Persistence("avatar download", err)
	}
	return data, info.ContentType, nil
}

// Remove deletes a previously uploaded avatar.
func (s *AvatarStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperr.Persistence("avatar remove", err)
	}
	return nil
}
