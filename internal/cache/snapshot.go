package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vitrine/internal/store"
	"vitrine/pkg/models"

	"github.com/sirupsen/logrus"
)

// Snapshot is the process-wide last-known-good copy of the profile. It
// serves reads synchronously (stale-while-revalidate) while Refresh
// fetches a fresh copy from the repository in the background.
//
// The cache has two logical states: it starts as an unconfirmed
// snapshot (disk copy or hardcoded default) and becomes confirmed after
// the first successful refresh. The transition is one-way: a failed
// refresh never demotes or erases a confirmed value.
type Snapshot struct {
	mu        sync.RWMutex
	profile   *models.Profile
	confirmed bool
	closed    bool

	path   string
	repo   store.Repository
	logger *logrus.Logger
}

// NewSnapshot creates a cache persisting to the given file path and
// refreshing from the given repository.
func NewSnapshot(path string, repo store.Repository, logger *logrus.Logger) *Snapshot {
	if logger == nil {
		logger = logrus.New()
	}
	return &Snapshot{
		path:   path,
		repo:   repo,
		logger: logger,
	}
}

// LoadInitial returns an immediately renderable profile: the persisted
// snapshot if one exists, else the hardcoded default. It is synchronous
// and never fails.
func (c *Snapshot) LoadInitial() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile != nil {
		return c.profile.Clone()
	}

	if data, err := os.ReadFile(c.path); err == nil {
		var p models.Profile
		if err := json.Unmarshal(data, &p); err == nil {
			c.profile = &p
			return p.Clone()
		}
		c.logger.WithField("path", c.path).Warn("Discarding unreadable profile snapshot")
	}

	c.profile = models.DefaultProfile()
	return c.profile.Clone()
}

// Refresh fetches the current profile from the repository. On success
// the in-memory profile and the persisted snapshot are replaced
// atomically, so consumers observe either the old or the new profile in
// full. On failure existing data is left untouched and a warning is
// logged; the public page treats this as a silently degraded path.
func (c *Snapshot) Refresh(ctx context.Context) error {
	fresh, err := c.repo.Get(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Profile refresh failed; serving cached data")
		return err
	}

	c.mu.Lock()
	if c.closed {
		// The initiating view is gone; discard the stale completion.
		c.mu.Unlock()
		return nil
	}
	c.profile = fresh.Clone()
	c.confirmed = true
	c.mu.Unlock()

	if err := c.persist(fresh); err != nil {
		c.logger.WithError(err).Warn("Failed to persist profile snapshot")
	}
	return nil
}

// Current returns the cached profile, falling back to LoadInitial when
// nothing has been loaded yet.
func (c *Snapshot) Current() *models.Profile {
	c.mu.RLock()
	p := c.profile
	c.mu.RUnlock()

	if p == nil {
		return c.LoadInitial()
	}
	return p.Clone()
}

// Confirmed reports whether at least one refresh has succeeded.
func (c *Snapshot) Confirmed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.confirmed
}

// Close marks the cache torn down. Refresh completions arriving after
// Close are discarded rather than applied to dead state.
func (c *Snapshot) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// persist overwrites the snapshot file wholesale, via rename so a
// concurrent LoadInitial never sees a partial write.
func (c *Snapshot) persist(p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
