package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // GCS driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // S3 driver
	"gocloud.dev/gcerrors"
)

const signedURLExpiry = 30 * 24 * time.Hour

// BlobBackend stores payslips in any gocloud.dev bucket (gs://, s3://,
// file://, mem://). Item ids are object keys; folders are prefixes.
type BlobBackend struct {
	bucket  *blob.Bucket
	baseURL string
}

// OpenBlobBackend opens the bucket named by cfg.URL.
func OpenBlobBackend(ctx context.Context, cfg *config.BlobConfig) (*BlobBackend, error) {
	bucket, err := blob.OpenBucket(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", cfg.URL, err)
	}
	return NewBlobBackend(bucket, cfg.BaseURL), nil
}

// NewBlobBackend wraps an open bucket. When baseURL is empty links are
// signed URLs, which not every driver supports.
func NewBlobBackend(bucket *blob.Bucket, baseURL string) *BlobBackend {
	return &BlobBackend{bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (b *BlobBackend) Close() error {
	return b.bucket.Close()
}

func (b *BlobBackend) List(ctx context.Context, parentID string, filter ListFilter) ([]model.RemoteItem, error) {
	it := b.bucket.List(&blob.ListOptions{Prefix: parentID, Delimiter: "/"})

	var items []model.RemoteItem
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapBlobError("list", err)
		}
		if obj.Key == parentID || baseName(obj.Key) == folderMarker {
			continue
		}
		item := objectItem(obj.Key, obj.Size)
		item.Modified = obj.ModTime
		if matchFilter(item, filter) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (b *BlobBackend) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	key := folderKey(parentID, name)
	if err := b.bucket.WriteAll(ctx, key+folderMarker, nil, nil); err != nil {
		return "", wrapBlobError("write folder marker", err)
	}
	return key, nil
}

func (b *BlobBackend) CreateFile(ctx context.Context, parentID, name, contentType string, body io.Reader, _ int64) (string, error) {
	key := childKey(parentID, name)

	// Cancelling the writer's context before Close discards a partial upload.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.bucket.NewWriter(wctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return "", wrapBlobError("create writer", err)
	}
	if _, err := io.Copy(w, body); err != nil {
		cancel()
		_ = w.Close()
		return "", wrapBlobError("write "+key, err)
	}
	if err := w.Close(); err != nil {
		return "", wrapBlobError("close writer", err)
	}
	return key, nil
}

// GrantPublicRead is a no-op; exposure is decided by the bucket itself.
func (b *BlobBackend) GrantPublicRead(context.Context, string) error {
	return nil
}

func (b *BlobBackend) ShareLink(ctx context.Context, id string) (string, error) {
	if b.baseURL != "" {
		segments := strings.Split(id, "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		return b.baseURL + "/" + strings.Join(segments, "/"), nil
	}

	link, err := b.bucket.SignedURL(ctx, id, &blob.SignedURLOptions{Expiry: signedURLExpiry})
	if err != nil {
		return "", wrapBlobError("signed url", err)
	}
	return link, nil
}

// Delete removes an object, or every object under a folder prefix.
func (b *BlobBackend) Delete(ctx context.Context, id string) error {
	if !isFolderKey(id) {
		if err := b.bucket.Delete(ctx, id); err != nil {
			return wrapBlobError("delete", err)
		}
		return nil
	}

	it := b.bucket.List(&blob.ListOptions{Prefix: id})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapBlobError("list", err)
		}
		if err := b.bucket.Delete(ctx, obj.Key); err != nil {
			return wrapBlobError("delete "+obj.Key, err)
		}
	}
}

func (b *BlobBackend) Download(ctx context.Context, id string, w io.Writer) error {
	r, err := b.bucket.NewReader(ctx, id, nil)
	if err != nil {
		return wrapBlobError("open reader", err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return wrapBlobError("read "+id, err)
	}
	return nil
}

func wrapBlobError(op string, err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return &RemoteError{Op: op, Err: errors.Join(ErrNotFound, err)}
	case gcerrors.Unavailable:
		return &RemoteError{Op: op, Retryable: true, Err: err}
	default:
		return &RemoteError{Op: op, Err: err}
	}
}

var _ Backend = (*BlobBackend)(nil)
