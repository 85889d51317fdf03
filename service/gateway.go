package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/metrics"
)

// ListFilter narrows a child listing. Zero values match everything.
type ListFilter struct {
	Name string
	Kind model.ItemKind
}

// Backend is the raw remote store surface consumed by the Gateway.
// An empty parentID addresses the store root (the shared drive, or the
// bucket root for object stores).
type Backend interface {
	// List returns the non-trashed direct children of parentID.
	List(ctx context.Context, parentID string, filter ListFilter) ([]model.RemoteItem, error)
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
	CreateFile(ctx context.Context, parentID, name, contentType string, body io.Reader, size int64) (string, error)
	// GrantPublicRead makes id readable by anyone holding the link.
	GrantPublicRead(ctx context.Context, id string) error
	ShareLink(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, id string, w io.Writer) error
}

const pdfContentType = "application/pdf"

// Gateway wraps a Backend with idempotent operations and bounded retries.
type Gateway struct {
	backend Backend
	policy  RetryPolicy
	metrics *metrics.Metrics
}

func NewGateway(backend Backend, policy RetryPolicy, m *metrics.Metrics) *Gateway {
	return &Gateway{
		backend: backend,
		policy:  policy,
		metrics: m,
	}
}

// ResolveOrCreateContainer returns the folder named name directly under
// parentID, creating it when absent.
func (g *Gateway) ResolveOrCreateContainer(ctx context.Context, parentID, name string) (model.ContainerRef, error) {
	var existing []model.RemoteItem
	err := g.policy.Do(ctx, "find_folder", g.metrics, func(ctx context.Context) error {
		var err error
		existing, err = g.backend.List(ctx, parentID, ListFilter{Name: name, Kind: model.KindFolder})
		return err
	})
	if err != nil {
		return model.ContainerRef{}, fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(existing) > 0 {
		return existing[0].Ref(), nil
	}

	var id string
	err = g.policy.Do(ctx, "create_folder", g.metrics, func(ctx context.Context) error {
		var err error
		id, err = g.backend.CreateFolder(ctx, parentID, name)
		return err
	})
	if err != nil {
		return model.ContainerRef{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	return model.ContainerRef{ID: id, Name: name}, nil
}

// UploadReplacing removes any object named filename in the container, uploads
// body in its place, opens it for link-only public reads and returns the link.
func (g *Gateway) UploadReplacing(ctx context.Context, containerID, filename string, body []byte) (model.UploadResult, error) {
	var existing []model.RemoteItem
	err := g.policy.Do(ctx, "find_file", g.metrics, func(ctx context.Context) error {
		var err error
		existing, err = g.backend.List(ctx, containerID, ListFilter{Name: filename, Kind: model.KindFile})
		return err
	})
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("find %q: %w", filename, err)
	}

	for _, item := range existing {
		id := item.ID
		err := g.policy.Do(ctx, "delete", g.metrics, func(ctx context.Context) error {
			return g.backend.Delete(ctx, id)
		})
		if err != nil {
			return model.UploadResult{}, fmt.Errorf("replace %q: delete %s: %w", filename, id, err)
		}
	}

	var id string
	err = g.policy.Do(ctx, "create_file", g.metrics, func(ctx context.Context) error {
		var err error
		id, err = g.backend.CreateFile(ctx, containerID, filename, pdfContentType, bytes.NewReader(body), int64(len(body)))
		return err
	})
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("upload %q: %w", filename, err)
	}

	err = g.policy.Do(ctx, "grant_public_read", g.metrics, func(ctx context.Context) error {
		return g.backend.GrantPublicRead(ctx, id)
	})
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("share %q: %w", filename, err)
	}

	var link string
	err = g.policy.Do(ctx, "share_link", g.metrics, func(ctx context.Context) error {
		var err error
		link, err = g.backend.ShareLink(ctx, id)
		return err
	})
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("link %q: %w", filename, err)
	}

	return model.UploadResult{RemoteID: id, Link: link}, nil
}

// ListChildren returns the direct children of containerID ("" for root),
// folders first, then by name.
func (g *Gateway) ListChildren(ctx context.Context, containerID string) ([]model.RemoteItem, error) {
	var items []model.RemoteItem
	err := g.policy.Do(ctx, "list", g.metrics, func(ctx context.Context) error {
		var err error
		items, err = g.backend.List(ctx, containerID, ListFilter{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", containerID, err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsFolder() != items[j].IsFolder() {
			return items[i].IsFolder()
		}
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// DeleteObject removes a file or a container; container contents go with it.
func (g *Gateway) DeleteObject(ctx context.Context, id string) error {
	err := g.policy.Do(ctx, "delete", g.metrics, func(ctx context.Context) error {
		return g.backend.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Download copies the content of id into w. The body is buffered so a
// retried attempt never leaves partial output behind.
func (g *Gateway) Download(ctx context.Context, id string, w io.Writer) error {
	var buf bytes.Buffer
	err := g.policy.Do(ctx, "download", g.metrics, func(ctx context.Context) error {
		buf.Reset()
		return g.backend.Download(ctx, id, &buf)
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", id, err)
	}
	_, err = buf.WriteTo(w)
	return err
}
