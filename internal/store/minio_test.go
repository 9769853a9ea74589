package store

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mkravets/tasktracker/internal/apperr"
)

func TestAvatarObjectKeyPerContentType(t *testing.T) {
	cases := map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
	}
	for contentType, ext := range cases {
		key, err := avatarObjectKey("u-1", contentType)
		if err != nil {
			t.Fatalf("%s: %v", contentType, err)
		}
		if !strings.HasPrefix(key, "u-1/") || !strings.HasSuffix(key, ext) {
			t.Errorf("%s: key = %q, want u-1/<uuid>%s", contentType, key, ext)
		}
	}

	// Successive uploads never reuse a key.
	a, _ := avatarObjectKey("u-1", "image/png")
	b, _ := avatarObjectKey("u-1", "image/png")
	if a == b {
		t.Fatalf("keys must be unique per upload, got %q twice", a)
	}
}

func TestAvatarPutRejectsUnsupportedType(t *testing.T) {
	s := &AvatarStore{}
	_, err := s.Put(context.Background(), "u-1", []byte("GIF89a"), "image/gif")
	e := apperr.From(err)
	if e.Kind != apperr.KindValidation || e.Fields["avatar"] == "" {
		t.Fatalf("expected VALIDATION_FAILED with an avatar reason, got %v", err)
	}
}

func TestAvatarPutRejectsOversizeImage(t *testing.T) {
	s := &AvatarStore{}
	_, err := s.Put(context.Background(), "u-1", bytes.Repeat([]byte{0}, MaxAvatarBytes+1), "image/png")
	e := apperr.From(err)
	if e.Kind != apperr.KindValidation || e.Fields["avatar"] == "" {
		t.Fatalf("expected VALIDATION_FAILED with an avatar reason, got %v", err)
	}
}
