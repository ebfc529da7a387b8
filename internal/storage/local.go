package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Local stores blobs under a media directory served by the HTTP server
// at /media/. Returned URLs are composed from the configured public
// base URL so they resolve from outside the host.
type Local struct {
	root    string
	baseURL string
	logger  *logrus.Logger
}

// NewLocal creates a local blob store rooted at the media directory.
func NewLocal(root, baseURL string, logger *logrus.Logger) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Local{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Save writes the blob under its category folder and returns its public
// URL. An existing file with the same name is never overwritten; a
// numeric suffix is appended until the name is free.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", fmt.Errorf("local storage: empty name")
	}

	destPath := filepath.Join(l.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create category folder: %w", err)
	}

	// Pick a unique destination name
	counter := 1
	for {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(filepath.Base(name), ext)
		destPath = filepath.Join(l.root, filepath.Dir(filepath.FromSlash(name)),
			fmt.Sprintf("%s_%d%s", base, counter, ext))
		counter++
	}

	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, r); err != nil {
		os.Remove(destPath) // clean up the partial write
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	rel, err := filepath.Rel(l.root, destPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve stored path: %w", err)
	}
	url := joinURL(l.baseURL, "media/"+filepath.ToSlash(rel))

	l.logger.WithFields(logrus.Fields{
		"name": filepath.ToSlash(rel),
		"url":  url,
	}).Info("Stored media file")

	return url, nil
}

// Root returns the media directory, for the asset watcher and the
// /media/ file server.
func (l *Local) Root() string {
	return l.root
}
