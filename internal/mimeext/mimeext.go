package mimeext

import (
	"strings"

	"github.com/source-eva/yteva/types"
)

const (
	// ExtM4A is the file extension for relayed audio.
	ExtM4A = "m4a"
	// ExtMP4 is the file extension for relayed video.
	ExtMP4 = "mp4"
	// DefaultExt is used for unknown media types.
	DefaultExt = ExtMP4
)

// ExtForMedia returns the file extension (without dot) the relay channel
// uses for media.
func ExtForMedia(media types.MediaType) string {
	switch types.MediaType(strings.ToLower(string(media))) {
	case types.MediaAudio:
		return ExtM4A
	case types.MediaVideo:
		return ExtMP4
	default:
		return DefaultExt
	}
}
