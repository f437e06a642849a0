package types

// Thumbnail is one preview image of a video.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Channel identifies the uploader of a video.
type Channel struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Link string `json:"link"`
}

// ViewCount holds the raw display text and its abbreviated form.
type ViewCount struct {
	Text  string `json:"text"`
	Short string `json:"short"`
}

// VideoSummary is the normalized description of one video. Unavailable
// string fields are empty.
type VideoSummary struct {
	Type          string      `json:"type"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	PublishedTime string      `json:"publishedTime"`
	Duration      string      `json:"duration"`
	ViewCount     ViewCount   `json:"viewCount"`
	Thumbnails    []Thumbnail `json:"thumbnails"`
	Channel       Channel     `json:"channel"`
	Link          string      `json:"link"`
}

// VideoType is the value of VideoSummary.Type.
const VideoType = "video"

// Clone returns a deep copy of v.
func (v VideoSummary) Clone() VideoSummary {
	if v.Thumbnails != nil {
		v.Thumbnails = append([]Thumbnail(nil), v.Thumbnails...)
	}
	return v
}
