package model

import "time"

// ItemKind distinguishes containers from objects in a listing.
type ItemKind string

const (
	KindFolder ItemKind = "folder"
	KindFile   ItemKind = "file"
)

// FolderMimeType is the Drive mime type of a folder.
const FolderMimeType = "application/vnd.google-apps.folder"

// RemoteItem is a direct child returned by a container listing.
type RemoteItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     ItemKind  `json:"kind"`
	MimeType string    `json:"mime_type,omitempty"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified_time"`
}

// IsFolder reports whether the item can be navigated into.
func (i RemoteItem) IsFolder() bool {
	return i.Kind == KindFolder
}

// Ref returns the container reference of a folder item.
func (i RemoteItem) Ref() ContainerRef {
	return ContainerRef{ID: i.ID, Name: i.Name}
}

// UploadResult is what an upload-replace hands back to the caller.
type UploadResult struct {
	RemoteID string `json:"remote_id"`
	Link     string `json:"link"`
}

// ListingPage is one paginated view of a location.
type ListingPage struct {
	Location ContainerRef   `json:"location"` // zero value means root
	AtRoot   bool           `json:"at_root"`
	Depth    int            `json:"depth"`
	Items    []RemoteItem   `json:"items"`
	Offset   int            `json:"offset"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
	HasMore  bool           `json:"has_more"`
	Trail    []ContainerRef `json:"trail"`
}

// NavigationState is a snapshot of an explorer session. A nil Current
// means the session is at the root.
type NavigationState struct {
	Current  *ContainerRef  `json:"current"`
	Stack    []ContainerRef `json:"stack"`
	Offset   int            `json:"offset"`
	PageSize int            `json:"page_size"`
}
