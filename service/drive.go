package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	driveListFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime)"
	driveLinkBase   = "https://drive.google.com/uc?export=download&id="
)

// DriveBackend talks to Google Drive v3. When a shared drive id is set every
// call is scoped to that drive and its root is the default parent.
type DriveBackend struct {
	svc     *drive.Service
	driveID string
}

// NewDriveBackend builds a Drive client from service account credentials.
func NewDriveBackend(ctx context.Context, cfg *config.DriveConfig) (*DriveBackend, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return NewDriveBackendWithService(svc, cfg.SharedDriveID), nil
}

// NewDriveBackendWithService wraps an existing client.
func NewDriveBackendWithService(svc *drive.Service, sharedDriveID string) *DriveBackend {
	return &DriveBackend{svc: svc, driveID: sharedDriveID}
}

func (b *DriveBackend) parent(id string) string {
	switch {
	case id != "":
		return id
	case b.driveID != "":
		return b.driveID
	default:
		return "root"
	}
}

func (b *DriveBackend) List(ctx context.Context, parentID string, filter ListFilter) ([]model.RemoteItem, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", escapeDriveQuery(b.parent(parentID)))
	if filter.Name != "" {
		q += fmt.Sprintf(" and name='%s'", escapeDriveQuery(filter.Name))
	}
	switch filter.Kind {
	case model.KindFolder:
		q += fmt.Sprintf(" and mimeType='%s'", model.FolderMimeType)
	case model.KindFile:
		q += fmt.Sprintf(" and mimeType!='%s'", model.FolderMimeType)
	}

	call := b.svc.Files.List().
		Q(q).
		Fields(driveListFields).
		OrderBy("folder,name").
		PageSize(1000).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if b.driveID != "" {
		call = call.Corpora("drive").DriveId(b.driveID)
	}

	var items []model.RemoteItem
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			items = append(items, driveItem(f))
		}
		return nil
	})
	if err != nil {
		return nil, wrapDriveError("files.list", err)
	}
	return items, nil
}

func (b *DriveBackend) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	f, err := b.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: model.FolderMimeType,
		Parents:  []string{b.parent(parentID)},
	}).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", wrapDriveError("files.create folder", err)
	}
	return f.Id, nil
}

func (b *DriveBackend) CreateFile(ctx context.Context, parentID, name, contentType string, body io.Reader, size int64) (string, error) {
	f, err := b.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{b.parent(parentID)},
	}).Media(body, googleapi.ContentType(contentType)).
		Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", wrapDriveError("files.create", err)
	}
	return f.Id, nil
}

// GrantPublicRead adds an anyone/reader permission with discovery disabled.
func (b *DriveBackend) GrantPublicRead(ctx context.Context, id string) error {
	_, err := b.svc.Permissions.Create(id, &drive.Permission{
		Type:               "anyone",
		Role:               "reader",
		AllowFileDiscovery: false,
		ForceSendFields:    []string{"AllowFileDiscovery"},
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return wrapDriveError("permissions.create", err)
	}
	return nil
}

// ShareLink returns the direct-download URL, not the Drive viewer link.
func (b *DriveBackend) ShareLink(_ context.Context, id string) (string, error) {
	return DriveDownloadLink(id), nil
}

func (b *DriveBackend) Delete(ctx context.Context, id string) error {
	if err := b.svc.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return wrapDriveError("files.delete", err)
	}
	return nil
}

func (b *DriveBackend) Download(ctx context.Context, id string, w io.Writer) error {
	resp, err := b.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return wrapDriveError("files.get media", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &RemoteError{Op: "files.get media", Err: err}
	}
	return nil
}

// DriveDownloadLink builds the canonical direct-download URL for a file id.
func DriveDownloadLink(id string) string {
	return driveLinkBase + url.QueryEscape(id)
}

func driveItem(f *drive.File) model.RemoteItem {
	item := model.RemoteItem{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     model.KindFile,
		MimeType: f.MimeType,
		Size:     f.Size,
	}
	if f.MimeType == model.FolderMimeType {
		item.Kind = model.KindFolder
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		item.Modified = t
	}
	return item
}

func escapeDriveQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// wrapDriveError classifies Drive API failures; only 503 is retried.
func wrapDriveError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &RemoteError{
			Op:        op,
			Status:    gerr.Code,
			Retryable: gerr.Code == http.StatusServiceUnavailable,
			Err:       err,
		}
	}
	return &RemoteError{Op: op, Err: err}
}

var _ Backend = (*DriveBackend)(nil)
