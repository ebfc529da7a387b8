package models

// Profile is the single persisted document describing the site owner's
// displayed identity, links and media. Exactly one profile exists; it is
// created from DefaultProfile on first read and never deleted.
type Profile struct {
	DisplayName   string       `json:"displayName"`
	Bio           []string     `json:"bio"` // ordered typewriter lines
	Quote         string       `json:"quote"`
	ThemeColor    string       `json:"themeColor"`
	AvatarURL     string       `json:"avatarUrl"`
	BackgroundURL string       `json:"backgroundUrl"`
	SongURL       string       `json:"songUrl"` // empty means "use the bundled default track"
	SongTitle     string       `json:"songTitle"`
	SongArtist    string       `json:"songArtist"`
	SocialLinks   []SocialLink `json:"socialLinks"`
}

// SocialLink is one entry in the profile's ordered link list.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

// Clone returns a deep copy so callers can hand out profiles without
// sharing the underlying slices.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Bio != nil {
		c.Bio = make([]string, len(p.Bio))
		copy(c.Bio, p.Bio)
	}
	if p.SocialLinks != nil {
		c.SocialLinks = make([]SocialLink, len(p.SocialLinks))
		copy(c.SocialLinks, p.SocialLinks)
	}
	return &c
}

// DefaultProfile returns the hardcoded profile used when no document
// exists yet. Field values are placeholders the owner edits through the
// admin panel.
func DefaultProfile() *Profile {
	return &Profile{
		DisplayName:   "Your Name",
		Bio:           []string{"Full Stack Developer", "Night Owl", "Coffee Enthusiast"},
		Quote:         "Building things for the web. Breaking things for fun.",
		ThemeColor:    "#000000",
		AvatarURL:     "/static/img/default-avatar.png",
		BackgroundURL: "/static/img/default-background.jpg",
		SongURL:       "",
		SongTitle:     "Untitled",
		SongArtist:    "Unknown Artist",
		SocialLinks: []SocialLink{
			{Platform: "GitHub", URL: "https://github.com", Icon: IconGitHub},
			{Platform: "Discord", URL: "https://discord.com", Icon: IconDiscord},
		},
	}
}

// ProfilePatch is a sparse field set merged into the profile document.
// Nil fields are left untouched; slices replace the whole sequence.
type ProfilePatch struct {
	DisplayName   *string       `json:"displayName,omitempty"`
	Bio           *[]string     `json:"bio,omitempty"`
	Quote         *string       `json:"quote,omitempty"`
	ThemeColor    *string       `json:"themeColor,omitempty"`
	AvatarURL     *string       `json:"avatarUrl,omitempty"`
	BackgroundURL *string       `json:"backgroundUrl,omitempty"`
	SongURL       *string       `json:"songUrl,omitempty"`
	SongTitle     *string       `json:"songTitle,omitempty"`
	SongArtist    *string       `json:"songArtist,omitempty"`
	SocialLinks   *[]SocialLink `json:"socialLinks,omitempty"`
}

// Apply merges the supplied fields into the profile.
func (pp *ProfilePatch) Apply(p *Profile) {
	if pp.DisplayName != nil {
		p.DisplayName = *pp.DisplayName
	}
	if pp.Bio != nil {
		p.Bio = append([]string(nil), (*pp.Bio)...)
	}
	if pp.Quote != nil {
		p.Quote = *pp.Quote
	}
	if pp.ThemeColor != nil {
		p.ThemeColor = *pp.ThemeColor
	}
	if pp.AvatarURL != nil {
		p.AvatarURL = *pp.AvatarURL
	}
	if pp.BackgroundURL != nil {
		p.BackgroundURL = *pp.BackgroundURL
	}
	if pp.SongURL != nil {
		p.SongURL = *pp.SongURL
	}
	if pp.SongTitle != nil {
		p.SongTitle = *pp.SongTitle
	}
	if pp.SongArtist != nil {
		p.SongArtist = *pp.SongArtist
	}
	if pp.SocialLinks != nil {
		p.SocialLinks = append([]SocialLink(nil), (*pp.SocialLinks)...)
	}
}

// IsEmpty reports whether the patch carries no fields at all.
func (pp *ProfilePatch) IsEmpty() bool {
	return pp.DisplayName == nil && pp.Bio == nil && pp.Quote == nil &&
		pp.ThemeColor == nil && pp.AvatarURL == nil && pp.BackgroundURL == nil &&
		pp.SongURL == nil && pp.SongTitle == nil && pp.SongArtist == nil &&
		pp.SocialLinks == nil
}
