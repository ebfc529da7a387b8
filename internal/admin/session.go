package admin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vitrine/internal/store"
	"vitrine/pkg/models"
)

// EditingSession stages local edits to profile fields and commits them
// as one partial update. Staged values survive a failed commit so the
// admin can retry; nothing is rolled back or auto-retried.
type EditingSession struct {
	mu sync.Mutex

	displayName string
	quote       string
	themeColor  string
	bioText     string
	links       []models.SocialLink
}

// NewEditingSession stages the current profile for editing.
func NewEditingSession(p *models.Profile) *EditingSession {
	s := &EditingSession{}
	s.Reset(p)
	return s
}

// Reset re-stages the session from a profile, discarding pending edits.
func (s *EditingSession) Reset(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.displayName = p.DisplayName
	s.quote = p.Quote
	s.themeColor = p.ThemeColor
	s.bioText = JoinBio(p.Bio)
	s.links = append([]models.SocialLink(nil), p.SocialLinks...)
}

// SetDisplayName stages a display name; the staged value replaces the
// prior one on each call and is committed verbatim.
func (s *EditingSession) SetDisplayName(v string) {
	s.mu.Lock()
	s.displayName = v
	s.mu.Unlock()
}

// SetQuote stages a quote.
func (s *EditingSession) SetQuote(v string) {
	s.mu.Lock()
	s.quote = v
	s.mu.Unlock()
}

// SetThemeColor stages a theme color.
func (s *EditingSession) SetThemeColor(v string) {
	s.mu.Lock()
	s.themeColor = v
	s.mu.Unlock()
}

// SetBioText stages the bio as newline-delimited text, one typewriter
// line per entry.
func (s *EditingSession) SetBioText(text string) {
	s.mu.Lock()
	s.bioText = text
	s.mu.Unlock()
}

// BioText returns the staged bio text for re-editing.
func (s *EditingSession) BioText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bioText
}

// AddLink appends a blank-templated link entry and returns its index.
func (s *EditingSession) AddLink() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links = append(s.links, models.SocialLink{Icon: models.IconLink})
	return len(s.links) - 1
}

// RemoveLink deletes the entry at the given position, shifting
// subsequent entries down.
func (s *EditingSession) RemoveLink(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.links) {
		return fmt.Errorf("link index %d out of range", index)
	}
	s.links = append(s.links[:index], s.links[index+1:]...)
	return nil
}

// UpdateLink replaces one field of the entry at the given position.
// Icon values are normalized through the icon enumeration.
func (s *EditingSession) UpdateLink(index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.links) {
		return fmt.Errorf("link index %d out of range", index)
	}
	switch field {
	case "platform":
		s.links[index].Platform = value
	case "url":
		s.links[index].URL = value
	case "icon":
		s.links[index].Icon = models.ResolveIcon(value)
	default:
		return fmt.Errorf("unknown link field: %s", field)
	}
	return nil
}

// Links returns a copy of the staged link list.
func (s *EditingSession) Links() []models.SocialLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SocialLink(nil), s.links...)
}

// Patch builds the partial update the session would commit: staged text
// fields, the bio split into ordered trimmed lines with blanks dropped,
// and the link list as a full-sequence replacement.
func (s *EditingSession) Patch() models.ProfilePatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	displayName := s.displayName
	quote := s.quote
	themeColor := s.themeColor
	bio := SplitBio(s.bioText)
	links := append([]models.SocialLink(nil), s.links...)

	return models.ProfilePatch{
		DisplayName: &displayName,
		Quote:       &quote,
		ThemeColor:  &themeColor,
		Bio:         &bio,
		SocialLinks: &links,
	}
}

// Save commits the staged edits through the repository. On failure the
// error propagates for user-visible reporting and the staged state is
// preserved for retry.
func (s *EditingSession) Save(ctx context.Context, repo store.Repository) (*models.Profile, error) {
	updated, err := repo.Merge(ctx, s.Patch())
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return updated, nil
}

// SplitBio turns newline-delimited bio text into ordered lines,
// trimming each and discarding blanks.
func SplitBio(text string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// JoinBio renders bio lines back to newline-delimited text.
func JoinBio(lines []string) string {
	return strings.Join(lines, "\n")
}
