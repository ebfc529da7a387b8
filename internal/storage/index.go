package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Asset is one stored media file visible to the admin panel.
type Asset struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Index keeps a live listing of the local media directory. Files added
// or removed outside the server (scp, manual cleanup) are picked up by
// the filesystem watcher, so the admin asset browser stays current.
type Index struct {
	mu     sync.RWMutex
	assets map[string]Asset // keyed by path relative to root

	local   *Local
	watcher *fsnotify.Watcher
	logger  *logrus.Logger
}

// NewIndex creates an index over a local blob store.
func NewIndex(local *Local, logger *logrus.Logger) *Index {
	if logger == nil {
		logger = logrus.New()
	}
	return &Index{
		assets: make(map[string]Asset),
		local:  local,
		logger: logger,
	}
}

// Start scans the media directory and begins watching it for changes.
func (ix *Index) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	ix.watcher = watcher

	go ix.watchFiles()

	if err := ix.addDirectoryToWatcher(ix.local.Root()); err != nil {
		return err
	}

	ix.logger.WithField("media_dir", ix.local.Root()).Info("Asset watcher started")
	return nil
}

// Stop shuts down the watcher.
func (ix *Index) Stop() {
	if ix.watcher != nil {
		ix.watcher.Close()
	}
}

// List returns all known assets ordered by category then name.
func (ix *Index) List() []Asset {
	ix.mu.RLock()
	assets := make([]Asset, 0, len(ix.assets))
	for _, a := range ix.assets {
		assets = append(assets, a)
	}
	ix.mu.RUnlock()

	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Category != assets[j].Category {
			return assets[i].Category < assets[j].Category
		}
		return assets[i].Name < assets[j].Name
	})
	return assets
}

// addDirectoryToWatcher recursively registers directories and indexes
// the files already present.
func (ix *Index) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return ix.watcher.Add(path)
		}
		ix.upsert(path, info)
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events.
func (ix *Index) watchFiles() {
	for {
		select {
		case event, ok := <-ix.watcher.Events:
			if !ok {
				return
			}
			ix.handleFileEvent(event)

		case err, ok := <-ix.watcher.Errors:
			if !ok {
				return
			}
			ix.logger.WithError(err).Error("Asset watcher error")
		}
	}
}

// handleFileEvent folds one filesystem event into the index.
func (ix *Index) handleFileEvent(event fsnotify.Event) {
	// Ignore temporary and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) {
				if err := ix.addDirectoryToWatcher(event.Name); err != nil {
					ix.logger.WithError(err).Warn("Failed to watch new media folder")
				}
			}
			return
		}
		ix.upsert(event.Name, info)

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		ix.remove(event.Name)
	}
}

func (ix *Index) upsert(path string, info os.FileInfo) {
	rel, err := filepath.Rel(ix.local.Root(), path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	category := ""
	if i := strings.IndexByte(rel, '/'); i > 0 {
		category = rel[:i]
	}

	ix.mu.Lock()
	existing, ok := ix.assets[rel]
	id := existing.ID
	if !ok {
		id = uuid.New().String()
	}
	ix.assets[rel] = Asset{
		ID:         id,
		Category:   category,
		Name:       filepath.Base(rel),
		Size:       info.Size(),
		URL:        joinURL(ix.local.baseURL, "media/"+rel),
		ModifiedAt: info.ModTime(),
	}
	ix.mu.Unlock()
}

func (ix *Index) remove(path string) {
	rel, err := filepath.Rel(ix.local.Root(), path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	ix.mu.Lock()
	delete(ix.assets, rel)
	ix.mu.Unlock()
}
