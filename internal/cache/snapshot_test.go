package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vitrine/pkg/models"
)

// fakeRepo serves canned profiles or failures in place of the real
// document store.
type fakeRepo struct {
	mu      sync.Mutex
	profile *models.Profile
	err     error
	gets    int
}

func (f *fakeRepo) Get(ctx context.Context) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile.Clone(), nil
}

func (f *fakeRepo) Merge(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	patch.Apply(f.profile)
	return f.profile.Clone(), nil
}

func TestSnapshotLoadInitial(t *testing.T) {
	t.Run("FallsBackToDefault", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		c := NewSnapshot(path, &fakeRepo{}, nil)

		p := c.LoadInitial()
		if p.DisplayName != models.DefaultProfile().DisplayName {
			t.Errorf("Expected default profile, got %q", p.DisplayName)
		}
		if c.Confirmed() {
			t.Error("Initial load must not count as confirmed")
		}
	})

	t.Run("ReadsPersistedSnapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		saved := &models.Profile{DisplayName: "Persisted"}
		data, _ := json.Marshal(saved)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("Failed to seed snapshot file: %v", err)
		}

		c := NewSnapshot(path, &fakeRepo{}, nil)
		p := c.LoadInitial()
		if p.DisplayName != "Persisted" {
			t.Errorf("Expected persisted profile, got %q", p.DisplayName)
		}
	})

	t.Run("DiscardsCorruptSnapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("Failed to seed snapshot file: %v", err)
		}

		c := NewSnapshot(path, &fakeRepo{}, nil)
		p := c.LoadInitial()
		if p.DisplayName != models.DefaultProfile().DisplayName {
			t.Errorf("Expected default after corrupt snapshot, got %q", p.DisplayName)
		}
	})
}

func TestSnapshotRefresh(t *testing.T) {
	t.Run("ConfirmsAndPersists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		repo := &fakeRepo{profile: &models.Profile{DisplayName: "Fresh"}}
		c := NewSnapshot(path, repo, nil)
		c.LoadInitial()

		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if !c.Confirmed() {
			t.Error("Expected confirmed after successful refresh")
		}
		if c.Current().DisplayName != "Fresh" {
			t.Errorf("Expected refreshed profile, got %q", c.Current().DisplayName)
		}

		// The snapshot file now carries the fresh copy
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Expected snapshot file: %v", err)
		}
		var p models.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("Snapshot file not valid JSON: %v", err)
		}
		if p.DisplayName != "Fresh" {
			t.Errorf("Expected persisted fresh profile, got %q", p.DisplayName)
		}
	})

	t.Run("FailureKeepsServing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		repo := &fakeRepo{profile: &models.Profile{DisplayName: "Fresh"}}
		c := NewSnapshot(path, repo, nil)
		c.LoadInitial()

		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		// Subsequent failures never demote the confirmed value
		repo.mu.Lock()
		repo.err = errors.New("store unreachable")
		repo.mu.Unlock()

		if err := c.Refresh(context.Background()); err == nil {
			t.Fatal("Expected refresh error")
		}
		if !c.Confirmed() {
			t.Error("Failed refresh must not demote confirmed state")
		}
		if c.Current().DisplayName != "Fresh" {
			t.Errorf("Failed refresh must not erase cached data, got %q", c.Current().DisplayName)
		}
	})

	t.Run("AtomicSwap", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		repo := &fakeRepo{profile: &models.Profile{
			DisplayName: "New Name",
			Quote:       "New Quote",
			SocialLinks: []models.SocialLink{{Platform: "GitHub", URL: "https://github.com/x", Icon: models.IconGitHub}},
		}}
		c := NewSnapshot(path, repo, nil)
		c.LoadInitial()

		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		p := c.Current()
		// All fields arrive together, never a mix of old and new
		if p.DisplayName != "New Name" || p.Quote != "New Quote" || len(p.SocialLinks) != 1 {
			t.Errorf("Expected whole-profile swap, got %+v", p)
		}
	})

	t.Run("CloseDiscardsCompletion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profile.json")
		repo := &fakeRepo{profile: &models.Profile{DisplayName: "Late"}}
		c := NewSnapshot(path, repo, nil)
		initial := c.LoadInitial()

		c.Close()
		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if c.Confirmed() {
			t.Error("Refresh completing after Close must be discarded")
		}
		if c.Current().DisplayName != initial.DisplayName {
			t.Errorf("Expected unchanged profile after close, got %q", c.Current().DisplayName)
		}
	})
}

func TestSnapshotCurrentIsCopy(t *testing.T) {
	c := NewSnapshot(filepath.Join(t.TempDir(), "profile.json"), &fakeRepo{}, nil)
	c.LoadInitial()

	p := c.Current()
	p.DisplayName = "mutated"
	p.Bio[0] = "mutated"

	q := c.Current()
	if q.DisplayName == "mutated" || q.Bio[0] == "mutated" {
		t.Error("Current must return an independent copy")
	}
}
