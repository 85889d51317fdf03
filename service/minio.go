package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBackend stores payslips in an S3-compatible bucket. Item ids are
// object keys; folders are prefixes.
type MinioBackend struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioBackend(cfg *config.MinioConfig) (*MinioBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioBackend{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (b *MinioBackend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return wrapMinioError("bucket exists", err)
	}

	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
			return wrapMinioError("make bucket", err)
		}
	}

	return nil
}

func (b *MinioBackend) List(ctx context.Context, parentID string, filter ListFilter) ([]model.RemoteItem, error) {
	var items []model.RemoteItem
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: parentID}) {
		if obj.Err != nil {
			return nil, wrapMinioError("list objects", obj.Err)
		}
		if obj.Key == parentID || baseName(obj.Key) == folderMarker {
			continue
		}
		item := objectItem(obj.Key, obj.Size)
		item.Modified = obj.LastModified
		if !item.IsFolder() {
			item.MimeType = obj.ContentType
		}
		if matchFilter(item, filter) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (b *MinioBackend) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	key := folderKey(parentID, name)
	_, err := b.client.PutObject(ctx, b.bucket, key+folderMarker, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return "", wrapMinioError("put folder marker", err)
	}
	return key, nil
}

func (b *MinioBackend) CreateFile(ctx context.Context, parentID, name, contentType string, body io.Reader, size int64) (string, error) {
	key := childKey(parentID, name)
	_, err := b.client.PutObject(ctx, b.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", wrapMinioError("put object", err)
	}
	return key, nil
}

// GrantPublicRead is a no-op: access is governed by the bucket policy or by
// the presigned link.
func (b *MinioBackend) GrantPublicRead(context.Context, string) error {
	return nil
}

func (b *MinioBackend) ShareLink(ctx context.Context, id string) (string, error) {
	if b.config.Public {
		return b.GetPublicURL(id), nil
	}
	return b.GetPresignedURL(ctx, id)
}

// GetPresignedURL generates a presigned URL for the object with expiration
func (b *MinioBackend) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(b.config.ExpireDays) * 24 * time.Hour
	u, err := b.client.PresignedGetObject(ctx, b.bucket, objectName, expiry, nil)
	if err != nil {
		return "", wrapMinioError("presign", err)
	}
	return u.String(), nil
}

// GetPublicURL returns a public URL for the object (if bucket policy allows)
func (b *MinioBackend) GetPublicURL(objectName string) string {
	protocol := "http"
	if b.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, b.config.Endpoint, b.bucket, objectName)
}

// Delete removes an object, or every object under a folder prefix.
func (b *MinioBackend) Delete(ctx context.Context, id string) error {
	if !isFolderKey(id) {
		if err := b.client.RemoveObject(ctx, b.bucket, id, minio.RemoveObjectOptions{}); err != nil {
			return wrapMinioError("remove object", err)
		}
		return nil
	}

	objects := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: id, Recursive: true})
	for rerr := range b.client.RemoveObjects(ctx, b.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return wrapMinioError("remove "+rerr.ObjectName, rerr.Err)
		}
	}
	return nil
}

func (b *MinioBackend) Download(ctx context.Context, id string, w io.Writer) error {
	obj, err := b.client.GetObject(ctx, b.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return wrapMinioError("get object", err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		return wrapMinioError("read object", err)
	}
	return nil
}

func wrapMinioError(op string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return &RemoteError{Op: op, Status: http.StatusNotFound, Err: fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(resp.Message))}
	}
	return &RemoteError{
		Op:        op,
		Status:    resp.StatusCode,
		Retryable: resp.StatusCode == http.StatusServiceUnavailable,
		Err:       err,
	}
}

var _ Backend = (*MinioBackend)(nil)
