package types

// MediaType selects the stream requested from the download-link API.
type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// LinkKind tells how a MediaLink must be consumed.
type LinkKind string

const (
	// LinkLive is a live stream URL to be played directly.
	LinkLive LinkKind = "live"
	// LinkDownload is a file link, usually a relay message.
	LinkDownload LinkKind = "download"
)

// MediaLink is a resolved download or live link for one video.
type MediaLink struct {
	Kind     LinkKind `json:"type"`
	URL      string   `json:"url"`
	SongName string   `json:"song_name,omitempty"`
}

// IsLive reports whether the link is a live stream.
func (l MediaLink) IsLive() bool {
	return l.Kind == LinkLive
}
