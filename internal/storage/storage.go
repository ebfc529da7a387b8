package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// Categories group uploaded blobs by destination folder.
const (
	CategoryAvatars     = "avatars"
	CategorySongs       = "songs"
	CategoryBackgrounds = "backgrounds"
)

// Storage stores binary blobs and returns publicly resolvable URLs.
// Save propagates any I/O error to the caller; the caller is
// responsible for user-visible reporting.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ObjectName composes the blob path from a category folder and the
// original file name, sanitized against path traversal.
func ObjectName(category, filename string) string {
	safe := filepath.Base(filepath.Clean(filename))
	if safe == "." || safe == string(filepath.Separator) || safe == "" {
		safe = "uploaded_file" + filepath.Ext(filename)
	}
	return path.Join(category, safe)
}

// joinURL appends a blob path to a base URL, tolerating trailing and
// leading slashes on either side.
func joinURL(base, name string) string {
	if base == "" {
		return "/" + strings.TrimLeft(name, "/")
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimLeft(name, "/")
}
