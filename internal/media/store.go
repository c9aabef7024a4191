// Package media externalizes embedded proof image payloads into durable,
// publicly addressable objects.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/complaint-service/internal/config"
)

// ErrEmptyPayload is returned when the embedded payload decodes to nothing.
var ErrEmptyPayload = errors.New("media: empty image payload")

// Store converts embedded image payloads into stable public URLs.
type Store interface {
	Upload(ctx context.Context, payload string) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// ObjectStore is the MinIO/S3-backed Store implementation.
type ObjectStore struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewObjectStore creates a MinIO client from the Config.
func NewObjectStore(cfg config.MediaConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &ObjectStore{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// EnsureBucket makes sure the proof bucket exists before use.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload decodes the embedded payload, stores it as an object, and returns
// the stable public URL.
func (s *ObjectStore) Upload(ctx context.Context, payload string) (string, error) {
	data, contentType, err := decodePayload(payload)
	if err != nil {
		return "", err
	}

	objectKey := uuid.NewString() + extensionFor(contentType)
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", fmt.Errorf("upload proof object: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, objectKey), nil
}

// Remove deletes the object behind a previously returned public URL.
func (s *ObjectStore) Remove(ctx context.Context, publicURL string) error {
	objectKey, err := s.objectKeyFromURL(publicURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove proof object: %w", err)
	}
	return nil
}

func (s *ObjectStore) objectKeyFromURL(publicURL string) (string, error) {
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse proof url: %w", err)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	key := segments[len(segments)-1]
	if key == "" {
		return "", fmt.Errorf("no object key in url %q", publicURL)
	}
	return key, nil
}

// decodePayload accepts either a bare base64 string or a data URI
// ("data:image/png;base64,...") and returns the raw bytes plus content type.
func decodePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	declaredType := ""
	if strings.HasPrefix(payload, "data:") {
		header, rest, found := strings.Cut(payload, ",")
		if !found {
			return nil, "", errors.New("media: malformed data uri")
		}
		declaredType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("media: decode payload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyPayload
	}

	contentType := declaredType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ".bin"
	}
}
