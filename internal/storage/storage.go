package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// MaxPhotoSize caps progress photo uploads.
const MaxPhotoSize int64 = 15 << 20

var (
	ErrObjectNotFound      = errors.New("object not found in storage")
	ErrUnsupportedFileType = errors.New("only image uploads are supported")
)

// ObjectMetadata is what HeadObject reports about a stored object.
type ObjectMetadata struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// HeadObject returns ErrObjectNotFound when nothing was uploaded under objectKey.
	HeadObject(ctx context.Context, objectKey string) (*ObjectMetadata, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// ValidateImageType accepts image/* MIME types only.
func ValidateImageType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(ct, "image/") || len(ct) == len("image/") {
		return ErrUnsupportedFileType
	}
	return nil
}

// PhotoObjectKey builds clients/<clientId>/photos/<uuid><ext>. The random
// part keeps concurrent uploads of the same file name apart.
func PhotoObjectKey(clientID primitive.ObjectID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	return fmt.Sprintf("clients/%s/photos/%s%s", clientID.Hex(), uuid.NewString(), ext)
}

// OwnsObjectKey reports whether objectKey was issued for clientID.
func OwnsObjectKey(clientID primitive.ObjectID, objectKey string) bool {
	return strings.HasPrefix(objectKey, fmt.Sprintf("clients/%s/photos/", clientID.Hex()))
}
