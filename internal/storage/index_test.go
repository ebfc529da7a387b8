package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// waitForAssets polls the index until cond holds or the deadline passes.
func waitForAssets(t *testing.T, ix *Index, cond func([]Asset) bool) []Asset {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		assets := ix.List()
		if cond(assets) {
			return assets
		}
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for asset condition, have %+v", assets)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestIndex(t *testing.T) {
	root := t.TempDir()
	local, err := NewLocal(root, "", nil)
	if err != nil {
		t.Fatalf("Failed to create local storage: %v", err)
	}

	// Files present before the watcher starts are indexed by the scan
	if err := os.MkdirAll(filepath.Join(root, "songs"), 0755); err != nil {
		t.Fatalf("Failed to create category folder: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "songs", "existing.mp3"), []byte("audio"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	ix := NewIndex(local, nil)
	if err := ix.Start(); err != nil {
		t.Fatalf("Failed to start index: %v", err)
	}
	defer ix.Stop()

	assets := waitForAssets(t, ix, func(a []Asset) bool { return len(a) == 1 })
	if assets[0].Category != "songs" || assets[0].Name != "existing.mp3" {
		t.Errorf("Unexpected initial asset: %+v", assets[0])
	}
	if assets[0].URL != "/media/songs/existing.mp3" {
		t.Errorf("Unexpected asset URL: %s", assets[0].URL)
	}

	t.Run("SaveIsPickedUp", func(t *testing.T) {
		if _, err := local.Save(context.Background(), ObjectName(CategoryAvatars, "me.png"), strings.NewReader("png")); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		// The avatars folder is new; the watcher must follow it
		assets := waitForAssets(t, ix, func(a []Asset) bool { return len(a) == 2 })
		if assets[0].Category != "avatars" {
			t.Errorf("Expected avatars listed first, got %+v", assets[0])
		}
	})

	t.Run("RemovalIsPickedUp", func(t *testing.T) {
		if err := os.Remove(filepath.Join(root, "songs", "existing.mp3")); err != nil {
			t.Fatalf("Failed to remove file: %v", err)
		}
		waitForAssets(t, ix, func(a []Asset) bool {
			for _, asset := range a {
				if asset.Name == "existing.mp3" {
					return false
				}
			}
			return true
		})
	})

	t.Run("HiddenAndTempFilesIgnored", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(root, "songs", ".hidden"), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write hidden file: %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, "songs", "upload.tmp"), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write temp file: %v", err)
		}

		// Give the watcher a moment, then confirm neither appeared
		time.Sleep(200 * time.Millisecond)
		for _, asset := range ix.List() {
			if asset.Name == ".hidden" || asset.Name == "upload.tmp" {
				t.Errorf("Expected %s to be ignored", asset.Name)
			}
		}
	})

	t.Run("StableIDsAcrossWrites", func(t *testing.T) {
		path := filepath.Join(root, "avatars", "me.png")
		before := waitForAssets(t, ix, func(a []Asset) bool {
			for _, asset := range a {
				if asset.Name == "me.png" {
					return true
				}
			}
			return false
		})
		var id string
		for _, asset := range before {
			if asset.Name == "me.png" {
				id = asset.ID
			}
		}

		if err := os.WriteFile(path, []byte("updated png"), 0644); err != nil {
			t.Fatalf("Failed to rewrite file: %v", err)
		}
		waitForAssets(t, ix, func(a []Asset) bool {
			for _, asset := range a {
				if asset.Name == "me.png" && asset.Size == int64(len("updated png")) {
					return asset.ID == id
				}
			}
			return false
		})
	})
}
