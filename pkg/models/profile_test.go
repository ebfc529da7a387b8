package models

import (
	"reflect"
	"testing"
)

func TestProfileClone(t *testing.T) {
	p := DefaultProfile()
	c := p.Clone()

	c.Bio[0] = "changed"
	c.SocialLinks[0].URL = "changed"

	if p.Bio[0] == "changed" || p.SocialLinks[0].URL == "changed" {
		t.Error("Clone must not share slices with the original")
	}

	var nilProfile *Profile
	if nilProfile.Clone() != nil {
		t.Error("Expected nil clone of nil profile")
	}
}

func TestProfilePatchApply(t *testing.T) {
	p := DefaultProfile()
	original := p.Clone()

	name := "Patched"
	links := []SocialLink{{Platform: "Solo", URL: "https://solo.example", Icon: IconLink}}
	patch := ProfilePatch{DisplayName: &name, SocialLinks: &links}
	patch.Apply(p)

	if p.DisplayName != "Patched" {
		t.Errorf("Expected patched name, got %q", p.DisplayName)
	}
	if !reflect.DeepEqual(p.SocialLinks, links) {
		t.Errorf("Expected links replaced wholesale, got %+v", p.SocialLinks)
	}
	if p.Quote != original.Quote || !reflect.DeepEqual(p.Bio, original.Bio) {
		t.Error("Expected absent fields untouched")
	}
}

func TestProfilePatchIsEmpty(t *testing.T) {
	if empty := (&ProfilePatch{}).IsEmpty(); !empty {
		t.Error("Expected empty patch")
	}
	v := "x"
	if empty := (&ProfilePatch{Quote: &v}).IsEmpty(); empty {
		t.Error("Expected non-empty patch")
	}
}

func TestResolveIcon(t *testing.T) {
	if got := ResolveIcon(IconDiscord); got != IconDiscord {
		t.Errorf("Expected known key kept, got %q", got)
	}
	if got := ResolveIcon("myspace"); got != IconLink {
		t.Errorf("Expected fallback for unknown key, got %q", got)
	}
	if got := ResolveIcon(""); got != IconLink {
		t.Errorf("Expected fallback for empty key, got %q", got)
	}
	if got := IconLabel(IconYouTube); got != "YouTube" {
		t.Errorf("Expected label YouTube, got %q", got)
	}
	if got := IconLabel("bogus"); got != "Link" {
		t.Errorf("Expected fallback label, got %q", got)
	}
}
