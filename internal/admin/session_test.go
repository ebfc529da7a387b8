package admin

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"vitrine/pkg/models"
)

type fakeRepo struct {
	mu      sync.Mutex
	profile *models.Profile
	err     error
}

func (f *fakeRepo) Get(ctx context.Context) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func testProfile() *models.Profile {
	return &models.Profile{
		DisplayName: "Owner",
		Bio:         []string{"First", "Second"},
		Quote:       "quote",
		ThemeColor:  "#112233",
		SocialLinks: []models.SocialLink{
			{Platform: "X", URL: "https://x.example", Icon: models.IconTwitter},
			{Platform: "Y", URL: "https://y.example", Icon: models.IconGitHub},
			{Platform: "Z", URL: "https://z.example", Icon: models.IconDiscord},
		},
	}
}

func TestBioRoundTrip(t *testing.T) {
	s := NewEditingSession(testProfile())

	s.SetBioText("  A  \nB\n\n\nC")
	patch := s.Patch()
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(*patch.Bio, want) {
		t.Errorf("Expected bio %v, got %v", want, *patch.Bio)
	}

	// Editing again starts from the joined committed lines
	if got := JoinBio(want); got != "A\nB\nC" {
		t.Errorf("Expected joined text A\\nB\\nC, got %q", got)
	}
}

func TestSplitBio(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", []string{}},
		{"\n\n", []string{}},
		{"one", []string{"one"}},
		{"one\ntwo", []string{"one", "two"}},
		{" padded \n\n last ", []string{"padded", "last"}},
	}
	for _, tt := range tests {
		if got := SplitBio(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitBio(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLinkEditing(t *testing.T) {
	t.Run("RemoveShiftsIndices", func(t *testing.T) {
		s := NewEditingSession(testProfile())

		// Removing Y makes Z take index 1; a subsequent update at 1
		// must hit Z, not a ghost of Y
		if err := s.RemoveLink(1); err != nil {
			t.Fatalf("Failed to remove link: %v", err)
		}
		if err := s.UpdateLink(1, "url", "https://new.example"); err != nil {
			t.Fatalf("Failed to update link: %v", err)
		}

		links := s.Links()
		if len(links) != 2 {
			t.Fatalf("Expected 2 links, got %d", len(links))
		}
		if links[0].Platform != "X" || links[0].URL != "https://x.example" {
			t.Errorf("Link X must be untouched, got %+v", links[0])
		}
		if links[1].Platform != "Z" || links[1].URL != "https://new.example" {
			t.Errorf("Expected update applied to Z, got %+v", links[1])
		}
	})

	t.Run("AddAppendsBlankTemplate", func(t *testing.T) {
		s := NewEditingSession(testProfile())

		index := s.AddLink()
		if index != 3 {
			t.Errorf("Expected new index 3, got %d", index)
		}
		links := s.Links()
		if links[3].Platform != "" || links[3].URL != "" {
			t.Errorf("Expected blank entry, got %+v", links[3])
		}
		if links[3].Icon != models.IconLink {
			t.Errorf("Expected generic icon, got %q", links[3].Icon)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		s := NewEditingSession(testProfile())

		if err := s.RemoveLink(5); err == nil {
			t.Error("Expected error removing out-of-range index")
		}
		if err := s.UpdateLink(-1, "url", "x"); err == nil {
			t.Error("Expected error updating negative index")
		}
		if err := s.UpdateLink(0, "nope", "x"); err == nil {
			t.Error("Expected error for unknown field")
		}
	})

	t.Run("IconNormalized", func(t *testing.T) {
		s := NewEditingSession(testProfile())

		if err := s.UpdateLink(0, "icon", "github"); err != nil {
			t.Fatalf("Failed to update icon: %v", err)
		}
		if got := s.Links()[0].Icon; got != models.IconGitHub {
			t.Errorf("Expected github icon kept, got %q", got)
		}

		if err := s.UpdateLink(0, "icon", "myspace"); err != nil {
			t.Fatalf("Failed to update icon: %v", err)
		}
		if got := s.Links()[0].Icon; got != models.IconLink {
			t.Errorf("Expected unknown icon to fall back to generic link, got %q", got)
		}
	})
}

func TestSave(t *testing.T) {
	t.Run("CommitsStagedEdits", func(t *testing.T) {
		repo := &fakeRepo{profile: testProfile()}
		s := NewEditingSession(repo.profile.Clone())

		s.SetDisplayName("Renamed")
		s.SetBioText("only line")
		if err := s.RemoveLink(2); err != nil {
			t.Fatalf("Failed to remove link: %v", err)
		}

		updated, err := s.Save(context.Background(), repo)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if updated.DisplayName != "Renamed" {
			t.Errorf("Expected renamed profile, got %q", updated.DisplayName)
		}
		if !reflect.DeepEqual(updated.Bio, []string{"only line"}) {
			t.Errorf("Expected replaced bio, got %v", updated.Bio)
		}
		if len(updated.SocialLinks) != 2 {
			t.Errorf("Expected link list replaced wholesale, got %d links", len(updated.SocialLinks))
		}
		// Untouched fields survive the sparse update
		if updated.Quote != "quote" {
			t.Errorf("Expected quote preserved, got %q", updated.Quote)
		}
	})

	t.Run("FailurePreservesStagedState", func(t *testing.T) {
		repo := &fakeRepo{profile: testProfile(), err: errors.New("store down")}
		s := NewEditingSession(testProfile())

		s.SetDisplayName("Pending")
		if _, err := s.Save(context.Background(), repo); err == nil {
			t.Fatal("Expected save error")
		}

		// The staged value is still there for retry
		repo.mu.Lock()
		repo.err = nil
		repo.mu.Unlock()
		updated, err := s.Save(context.Background(), repo)
		if err != nil {
			t.Fatalf("Retry failed: %v", err)
		}
		if updated.DisplayName != "Pending" {
			t.Errorf("Expected staged edit to survive failed save, got %q", updated.DisplayName)
		}
	})
}

func TestManager(t *testing.T) {
	m := NewManager()

	if m.Get("sid") != nil {
		t.Error("Expected no session for unknown id")
	}

	s := NewEditingSession(testProfile())
	m.Put("sid", s)
	if m.Get("sid") != s {
		t.Error("Expected stored session back")
	}

	m.Drop("sid")
	if m.Get("sid") != nil {
		t.Error("Expected session gone after drop")
	}
}
