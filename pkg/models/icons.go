package models

// Icon keys form a closed enumeration. The frontend maps each key to a
// renderer; unknown keys resolve to IconLink so a bad value can never
// break rendering.
const (
	IconDiscord   = "discord"
	IconGitHub    = "github"
	IconTelegram  = "telegram"
	IconSpotify   = "spotify"
	IconFacebook  = "facebook"
	IconInstagram = "instagram"
	IconPinterest = "pinterest"
	IconTwitter   = "twitter"
	IconYouTube   = "youtube"
	IconTwitch    = "twitch"
	IconLink      = "link" // fallback
)

var iconLabels = map[string]string{
	IconDiscord:   "Discord",
	IconGitHub:    "GitHub",
	IconTelegram:  "Telegram",
	IconSpotify:   "Spotify",
	IconFacebook:  "Facebook",
	IconInstagram: "Instagram",
	IconPinterest: "Pinterest",
	IconTwitter:   "Twitter",
	IconYouTube:   "YouTube",
	IconTwitch:    "Twitch",
	IconLink:      "Link",
}

// ResolveIcon normalizes an icon key to a member of the enumeration.
// Unknown or empty keys map to the fallback, never an error.
func ResolveIcon(key string) string {
	if _, ok := iconLabels[key]; ok {
		return key
	}
	return IconLink
}

// IconLabel returns the display label for an icon key, resolving unknown
// keys through the fallback.
func IconLabel(key string) string {
	return iconLabels[ResolveIcon(key)]
}

// IconKeys lists the enumeration in a stable order for the admin UI.
func IconKeys() []string {
	return []string{
		IconDiscord, IconGitHub, IconTelegram, IconSpotify, IconFacebook,
		IconInstagram, IconPinterest, IconTwitter, IconYouTube, IconTwitch,
		IconLink,
	}
}
