// Package storage range les images produits dans MinIO.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

type ImageStore interface {
	// Upload retourne la clé de l'objet stocké.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// URL retourne une URL signée temporaire pour la clé.
	URL(ctx context.Context, key string) (string, error)
}

type MinIOStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinIOStore(client *minio.Client, bucket string, expiry time.Duration) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket, expiry: expiry}
}

func (s *MinIOStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload MinIO %s: %w", key, err)
	}
	return key, nil
}

func (s *MinIOStore) URL(ctx context.Context, key string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, make(url.Values))
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// ImageKey construit products/<id>/<nom> en neutralisant les chemins relatifs.
func ImageKey(productID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return path.Join("products", productID, name)
}

// IsExternal indique une URL absolue saisie par l'admin, non signée.
func IsExternal(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
