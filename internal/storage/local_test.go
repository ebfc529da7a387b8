package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		category string
		filename string
		want     string
	}{
		{CategorySongs, "track.mp3", "songs/track.mp3"},
		{CategoryAvatars, "me.png", "avatars/me.png"},
		{CategorySongs, "../../etc/passwd", "songs/passwd"},
		{CategorySongs, "/absolute/track.mp3", "songs/track.mp3"},
		{CategoryBackgrounds, "", "backgrounds/uploaded_file"},
	}
	for _, tt := range tests {
		if got := ObjectName(tt.category, tt.filename); got != tt.want {
			t.Errorf("ObjectName(%q, %q) = %q, want %q", tt.category, tt.filename, got, tt.want)
		}
	}
}

func TestLocalSave(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesAndReturnsURL", func(t *testing.T) {
		root := t.TempDir()
		local, err := NewLocal(root, "http://localhost:8080", nil)
		if err != nil {
			t.Fatalf("Failed to create local storage: %v", err)
		}

		url, err := local.Save(ctx, ObjectName(CategorySongs, "track.mp3"), strings.NewReader("audio bytes"))
		if err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		if url != "http://localhost:8080/media/songs/track.mp3" {
			t.Errorf("Unexpected URL: %s", url)
		}

		data, err := os.ReadFile(filepath.Join(root, "songs", "track.mp3"))
		if err != nil {
			t.Fatalf("Expected stored file: %v", err)
		}
		if string(data) != "audio bytes" {
			t.Errorf("Unexpected file contents: %q", data)
		}
	})

	t.Run("RelativeURLWithoutBase", func(t *testing.T) {
		local, err := NewLocal(t.TempDir(), "", nil)
		if err != nil {
			t.Fatalf("Failed to create local storage: %v", err)
		}

		url, err := local.Save(ctx, ObjectName(CategoryAvatars, "me.png"), strings.NewReader("png"))
		if err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		if url != "/media/avatars/me.png" {
			t.Errorf("Expected relative URL, got %s", url)
		}
	})

	t.Run("NeverOverwrites", func(t *testing.T) {
		root := t.TempDir()
		local, err := NewLocal(root, "", nil)
		if err != nil {
			t.Fatalf("Failed to create local storage: %v", err)
		}

		first, err := local.Save(ctx, ObjectName(CategorySongs, "track.mp3"), strings.NewReader("one"))
		if err != nil {
			t.Fatalf("Failed first save: %v", err)
		}
		second, err := local.Save(ctx, ObjectName(CategorySongs, "track.mp3"), strings.NewReader("two"))
		if err != nil {
			t.Fatalf("Failed second save: %v", err)
		}

		if first == second {
			t.Errorf("Expected distinct URLs, both were %s", first)
		}
		if second != "/media/songs/track_1.mp3" {
			t.Errorf("Expected suffixed name, got %s", second)
		}

		data, err := os.ReadFile(filepath.Join(root, "songs", "track.mp3"))
		if err != nil {
			t.Fatalf("Expected original file intact: %v", err)
		}
		if string(data) != "one" {
			t.Errorf("Original file was overwritten: %q", data)
		}
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		local, err := NewLocal(t.TempDir(), "", nil)
		if err != nil {
			t.Fatalf("Failed to create local storage: %v", err)
		}
		if _, err := local.Save(ctx, "", strings.NewReader("x")); err == nil {
			t.Error("Expected error for empty name")
		}
	})
}
