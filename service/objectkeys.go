package service

import (
	"path"
	"strings"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
)

// Object stores have no folders. A folder is a key prefix ending in "/",
// materialized by an empty marker object so that empty folders still list.
const folderMarker = ".keep"

func childKey(parentID, name string) string {
	return parentID + name
}

func folderKey(parentID, name string) string {
	return parentID + strings.Trim(name, "/") + "/"
}

func isFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}

func baseName(key string) string {
	return path.Base(strings.TrimSuffix(key, "/"))
}

// matchFilter reports whether an object store entry passes filter.
func matchFilter(item model.RemoteItem, filter ListFilter) bool {
	if filter.Name != "" && item.Name != filter.Name {
		return false
	}
	if filter.Kind != "" && item.Kind != filter.Kind {
		return false
	}
	return true
}

func objectItem(key string, size int64) model.RemoteItem {
	item := model.RemoteItem{ID: key, Name: baseName(key), Kind: model.KindFile, Size: size}
	if isFolderKey(key) {
		item.Kind = model.KindFolder
		item.MimeType = model.FolderMimeType
		item.Size = 0
	}
	return item
}
