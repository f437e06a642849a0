package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxFilenameLength is the maximum allowed length for the filename base.
	MaxFilenameLength = 120
	// DefaultExt is the default extension used when none is provided.
	DefaultExt = "mp4"
	// DefaultName replaces an empty or dot-only name.
	DefaultName = "media"
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// ToSafeFilename builds a single path element from an untrusted name, such
// as a video id, and an extension without dot.
func ToSafeFilename(name, ext string) string {
	name = unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = DefaultName
	}
	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength]
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	ext = unsafeChars.ReplaceAllString(ext, "")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Base(name + "." + ext)
}
