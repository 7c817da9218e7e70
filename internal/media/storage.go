// Package media provides photo storage for web uploads and mirrored hotline
// media, including EXIF-based location hints.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// allowedContentTypes is the photo upload allowlist.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Storage stores report photos in a MinIO bucket with public-read access.
type Storage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	maxFileSize   int64
	secure        bool
	endpoint      string
}

// NewStorage creates the photo storage service.
func NewStorage(cfg config.StorageConfig) (*Storage, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Storage{
		client:        client,
		bucket:        cfg.GetMinioBucketReportPhotos(),
		publicBaseURL: strings.TrimRight(cfg.GetStoragePublicBaseURL(), "/"),
		maxFileSize:   cfg.GetMinIOMaxFileSize(),
		secure:        cfg.GetMinIOUseSSL(),
		endpoint:      cfg.GetMinIOEndpoint(),
	}, nil
}

// EnsureBucketExists creates the photo bucket if it doesn't exist.
func (s *Storage) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// ValidateUpload checks content type and size against the upload policy.
func (s *Storage) ValidateUpload(contentType string, size int64) error {
	if _, ok := allowedContentTypes[contentType]; !ok {
		return apperr.Validation("unsupported content type: " + contentType)
	}
	if size <= 0 || size > s.maxFileSize {
		return apperr.Validation(fmt.Sprintf("file size must be between 1 and %d bytes", s.maxFileSize))
	}
	return nil
}

// UploadPhoto stores a photo and returns its public URL. A UUID fragment in
// the key prevents overwrites.
func (s *Storage) UploadPhoto(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	ext := path.Ext(fileName)
	if ext == "" {
		ext = allowedContentTypes[contentType]
	}
	baseName := strings.TrimSuffix(fileName, ext)
	if baseName == "" {
		baseName = "photo"
	}
	uniqueFileName := fmt.Sprintf("%s_%s%s", baseName, uuid.New().String()[:8], ext)
	fileKey := filepath.ToSlash(filepath.Join(folder, uniqueFileName))

	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo %s: %w", fileKey, err)
	}

	return s.PublicURL(fileKey), nil
}

// PublicURL renders the public address of a stored object.
func (s *Storage) PublicURL(fileKey string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucket + "/" + fileKey
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, fileKey)
}
