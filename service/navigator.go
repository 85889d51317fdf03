package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
)

// Navigator tracks one browsing session over the remote store: the current
// container, the containers visited before it and the page offset. The
// current container is never on the stack. Listings always go to the
// Gateway.
type Navigator struct {
	mu          sync.Mutex
	gateway     *Gateway
	current     *model.ContainerRef
	stack       []model.ContainerRef
	offset      int
	pageSize    int
	maxPageSize int
}

func NewNavigator(gw *Gateway, pageSize, maxPageSize int) *Navigator {
	if pageSize <= 0 {
		pageSize = 25
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &Navigator{gateway: gw, pageSize: pageSize, maxPageSize: maxPageSize}
}

// Open moves into ref. The previous location is pushed unless it is the
// root. Opening a container already on the stack unwinds back to it.
func (n *Navigator) Open(ref model.ContainerRef) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.offset = 0
	if n.current != nil && n.current.ID == ref.ID {
		return
	}
	for i, prev := range n.stack {
		if prev.ID == ref.ID {
			n.stack = n.stack[:i]
			n.current = &ref
			return
		}
	}
	if n.current != nil {
		n.stack = append(n.stack, *n.current)
	}
	n.current = &ref
}

// OpenChild opens the child container id of the current location.
func (n *Navigator) OpenChild(ctx context.Context, id string) (model.ContainerRef, error) {
	items, err := n.gateway.ListChildren(ctx, n.location())
	if err != nil {
		return model.ContainerRef{}, err
	}
	for _, item := range items {
		if item.ID != id {
			continue
		}
		if !item.IsFolder() {
			return model.ContainerRef{}, fmt.Errorf("%w: %s", ErrNotAContainer, item.Name)
		}
		ref := item.Ref()
		n.Open(ref)
		return ref, nil
	}
	return model.ContainerRef{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Back returns to the previous container, or to the root when there is none.
func (n *Navigator) Back() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.offset = 0
	if len(n.stack) == 0 {
		n.current = nil
		return
	}
	prev := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	n.current = &prev
}

func (n *Navigator) GoToRoot() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
	n.stack = nil
	n.offset = 0
}

// Refresh restarts the listing from the first page.
func (n *Navigator) Refresh() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offset = 0
}

func (n *Navigator) ChangePageSize(size int) error {
	if size <= 0 || size > n.maxPageSize {
		return fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidPageSize, size, n.maxPageSize)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pageSize = size
	n.offset = 0
	return nil
}

// NextPage advances one page. List pulls the offset back if it runs past
// the end.
func (n *Navigator) NextPage() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offset += n.pageSize
}

func (n *Navigator) PrevPage() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offset -= n.pageSize
	if n.offset < 0 {
		n.offset = 0
	}
}

// List fetches the current location and returns the current page of it.
func (n *Navigator) List(ctx context.Context) (model.ListingPage, error) {
	state := n.State()
	location := ""
	if state.Current != nil {
		location = state.Current.ID
	}

	items, err := n.gateway.ListChildren(ctx, location)
	if err != nil {
		return model.ListingPage{}, err
	}

	offset := state.Offset
	if total := len(items); offset >= total && total > 0 {
		offset = (total - 1) / state.PageSize * state.PageSize
	}
	if len(items) == 0 {
		offset = 0
	}
	end := offset + state.PageSize
	if end > len(items) {
		end = len(items)
	}

	n.mu.Lock()
	if n.offset == state.Offset && sameLocation(n.current, state.Current) {
		n.offset = offset
	}
	n.mu.Unlock()

	page := model.ListingPage{
		AtRoot:   state.Current == nil,
		Depth:    len(state.Stack),
		Items:    items[offset:end],
		Offset:   offset,
		PageSize: state.PageSize,
		Total:    len(items),
		HasMore:  end < len(items),
		Trail:    append([]model.ContainerRef{}, state.Stack...),
	}
	if state.Current != nil {
		page.Location = *state.Current
		page.Depth++
		page.Trail = append(page.Trail, *state.Current)
	}
	return page, nil
}

// State returns a copy of the session state.
func (n *Navigator) State() model.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := model.NavigationState{
		Stack:    append([]model.ContainerRef{}, n.stack...),
		Offset:   n.offset,
		PageSize: n.pageSize,
	}
	if n.current != nil {
		cur := *n.current
		s.Current = &cur
	}
	return s
}

func (n *Navigator) location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return ""
	}
	return n.current.ID
}

func sameLocation(a, b *model.ContainerRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
