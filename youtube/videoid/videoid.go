// Package videoid recognizes YouTube URLs and extracts their video identifier.
// It is pure string processing and never touches the network.
package videoid

import (
	"net/url"
	"regexp"
)

// WatchBase is the watch page URL without the identifier.
const WatchBase = "https://www.youtube.com/watch?v="

// detectPatterns are tried in order; the first match wins.
var detectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com|youtu\.be)/(?:watch\?v=|embed/|v/|shorts/)?([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]{11})`),
}

// extractPatterns are tried in order; the first capture wins.
var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed|v|vi|user)/([^/?]+)`),
	regexp.MustCompile(`(?:watch\?v=|youtu\.be/)([^&?/]+)`),
	regexp.MustCompile(`shorts/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
}

var bareID = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// IsID reports whether s is a bare 11-character video identifier.
func IsID(s string) bool {
	return bareID.MatchString(s)
}

// IsURL reports whether s looks like a YouTube video URL.
func IsURL(s string) bool {
	for _, re := range detectPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Extract returns the video identifier embedded in s.
func Extract(s string) (string, bool) {
	for _, re := range extractPatterns {
		if m := re.FindStringSubmatch(s); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// Classify decides how s is looked up. A string that looks like a URL but
// yields no identifier is treated as a plain text query.
func Classify(s string) (id string, isURL bool) {
	if !IsURL(s) {
		return "", false
	}
	id, ok := Extract(s)
	if !ok {
		return "", false
	}
	return id, true
}

// WatchURL returns the canonical watch page URL of id.
func WatchURL(id string) string {
	return WatchBase + url.QueryEscape(id)
}
