// Package fsapi contains the core types of the filesystem API: the path
// resolver that confines every request to a single root directory, the entry
// descriptors handed back to callers, and the error taxonomy shared by all
// packages.
package fsapi

import (
	"fmt"
	"io/fs"
	"time"
)

// EntryKind valid kinds are FileKind "file", DirKind "directory"
type EntryKind string

const (
	FileKind EntryKind = "file"
	DirKind  EntryKind = "directory"
)

// Entry describes a single filesystem entry under the root.
// It is derived fresh from a stat call and never cached.
type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"` // relative to root, forward slashes
	Type        EntryKind `json:"type"`
	Size        *int64    `json:"size"` // files only
	Modified    time.Time `json:"modified"`
	Permissions string    `json:"permissions"` // i.e. "755"
}

// NewEntry builds an Entry for the resolved path p from its stat info.
func NewEntry(p Path, info fs.FileInfo) *Entry {
	e := &Entry{
		Name:        p.Name(),
		Path:        p.Rel(),
		Type:        FileKind,
		Modified:    info.ModTime(),
		Permissions: fmt.Sprintf("%03o", info.Mode().Perm()),
	}
	if info.IsDir() {
		e.Type = DirKind
	} else {
		size := info.Size()
		e.Size = &size
	}
	return e
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Type == DirKind
}

// Listing is the ordered content of a directory.
type Listing struct {
	Path  string  `json:"path"`
	Items []Entry `json:"items"`
}

// TextContent is a file decoded as text.
type TextContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// BinaryInfo is returned in place of text when a file does not decode under
// the requested encoding. Callers should offer a download instead.
type BinaryInfo struct {
	MIMEType string // empty when unknown
	Size     int64
}

// ReadResult holds exactly one of Text or Binary.
type ReadResult struct {
	Text   *TextContent
	Binary *BinaryInfo
}
