package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
)

type fakeObject struct {
	parent string
	name   string
	kind   model.ItemKind
	data   []byte
}

// fakeBackend is an in-memory Backend. Errors queued in failures are
// returned, one per call, before the operation is allowed to succeed.
type fakeBackend struct {
	mu       sync.Mutex
	objects  map[string]*fakeObject
	nextID   int
	failures map[string][]error
	calls    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects:  make(map[string]*fakeObject),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeBackend) failNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], errs...)
}

func unavailable(op string) error {
	return &RemoteError{Op: op, Status: http.StatusServiceUnavailable, Retryable: true, Err: fmt.Errorf("backend error")}
}

func forbidden(op string) error {
	return &RemoteError{Op: op, Status: http.StatusForbidden, Err: fmt.Errorf("insufficient permissions")}
}

// enter must be called with the lock held.
func (f *fakeBackend) enter(op string) error {
	f.calls[op]++
	if q := f.failures[op]; len(q) > 0 {
		f.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (f *fakeBackend) add(parent, name string, kind model.ItemKind, data []byte) string {
	f.nextID++
	id := fmt.Sprintf("id-%d", f.nextID)
	f.objects[id] = &fakeObject{parent: parent, name: name, kind: kind, data: data}
	return id
}

func (f *fakeBackend) List(_ context.Context, parentID string, filter ListFilter) ([]model.RemoteItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list"); err != nil {
		return nil, err
	}

	var items []model.RemoteItem
	for id, o := range f.objects {
		if o.parent != parentID {
			continue
		}
		item := model.RemoteItem{ID: id, Name: o.name, Kind: o.kind, Size: int64(len(o.data))}
		if matchFilter(item, filter) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeBackend) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create_folder"); err != nil {
		return "", err
	}
	return f.add(parentID, name, model.KindFolder, nil), nil
}

func (f *fakeBackend) CreateFile(_ context.Context, parentID, name, _ string, body io.Reader, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create_file"); err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return f.add(parentID, name, model.KindFile, data), nil
}

func (f *fakeBackend) GrantPublicRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("grant")
}

func (f *fakeBackend) ShareLink(_ context.Context, id string) (string, error) {
	return DriveDownloadLink(id), nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete"); err != nil {
		return err
	}
	if _, ok := f.objects[id]; !ok {
		return &RemoteError{Op: "delete", Status: http.StatusNotFound, Err: ErrNotFound}
	}
	f.deleteTree(id)
	return nil
}

func (f *fakeBackend) deleteTree(id string) {
	for childID, o := range f.objects {
		if o.parent == id {
			f.deleteTree(childID)
		}
	}
	delete(f.objects, id)
}

func (f *fakeBackend) Download(_ context.Context, id string, w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("download"); err != nil {
		return err
	}
	o, ok := f.objects[id]
	if !ok {
		return &RemoteError{Op: "download", Status: http.StatusNotFound, Err: ErrNotFound}
	}
	_, err := io.Copy(w, bytes.NewReader(o.data))
	return err
}

// named returns the objects called name under parent.
func (f *fakeBackend) named(parent, name string) []*fakeObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeObject
	for _, o := range f.objects {
		if o.parent == parent && o.name == name {
			out = append(out, o)
		}
	}
	return out
}

func (f *fakeBackend) idOf(obj *fakeObject) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, o := range f.objects {
		if o == obj {
			return id
		}
	}
	return ""
}

var _ Backend = (*fakeBackend)(nil)
