package types

import "encoding/json"

// Mode tells whether a lookup was a free-text query or a URL.
type Mode int

const (
	ModeQuery Mode = iota
	ModeURL
)

func (m Mode) String() string {
	if m == ModeURL {
		return "url"
	}
	return "query"
}

// Status is the outcome tag of a lookup.
type Status int

const (
	// StatusOK means at least one summary was produced.
	StatusOK Status = iota
	// StatusEmpty means the search succeeded but matched nothing.
	StatusEmpty
	// StatusFailed means a transport or parse failure left no summary.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Source names the strategy that produced the summaries.
type Source int

const (
	SourceNone Source = iota
	// SourceSearch is the search page; in URL mode an exact identifier match.
	SourceSearch
	// SourceBestEffort is the first renderer of a URL search without an exact match.
	SourceBestEffort
	// SourceMetadata is oEmbed and watch page meta tags.
	SourceMetadata
	// SourceSkeleton is the identifier-only summary of a failed metadata fallback.
	SourceSkeleton
)

func (s Source) String() string {
	switch s {
	case SourceSearch:
		return "search"
	case SourceBestEffort:
		return "best-effort"
	case SourceMetadata:
		return "metadata"
	case SourceSkeleton:
		return "skeleton"
	default:
		return "none"
	}
}

// LookupResult is the immutable outcome of one lookup. Videos is used in
// query mode, Video in URL mode. Error carries the message of the last
// recorded failure, which may coexist with a fallback summary.
type LookupResult struct {
	Mode   Mode
	Videos []VideoSummary
	Video  *VideoSummary
	Status Status
	Source Source
	Error  string
}

// HasResults reports whether at least one summary is present.
func (r LookupResult) HasResults() bool {
	if r.Mode == ModeURL {
		return r.Video != nil
	}
	return len(r.Videos) > 0
}

// First returns the first summary in query mode or the single summary in
// URL mode.
func (r LookupResult) First() (VideoSummary, bool) {
	if r.Mode == ModeURL {
		if r.Video == nil {
			return VideoSummary{}, false
		}
		return r.Video.Clone(), true
	}
	if len(r.Videos) == 0 {
		return VideoSummary{}, false
	}
	return r.Videos[0].Clone(), true
}

// Clone returns a copy sharing no memory with r.
func (r LookupResult) Clone() LookupResult {
	if r.Videos != nil {
		videos := make([]VideoSummary, len(r.Videos))
		for i, v := range r.Videos {
			videos[i] = v.Clone()
		}
		r.Videos = videos
	}
	if r.Video != nil {
		v := r.Video.Clone()
		r.Video = &v
	}
	return r
}

type lookupResultJSON struct {
	Result     interface{} `json:"result"`
	IsURL      bool        `json:"is_url"`
	HasResults bool        `json:"has_results"`
	Status     string      `json:"status"`
	Source     string      `json:"source,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// MarshalJSON renders {"result", "is_url", "has_results", "status", "source", "error"}.
// In query mode result is always an array.
func (r LookupResult) MarshalJSON() ([]byte, error) {
	out := lookupResultJSON{
		IsURL:      r.Mode == ModeURL,
		HasResults: r.HasResults(),
		Status:     r.Status.String(),
		Error:      r.Error,
	}
	if r.Source != SourceNone {
		out.Source = r.Source.String()
	}
	if r.Mode == ModeURL {
		if r.Video != nil {
			out.Result = r.Video
		}
	} else {
		videos := r.Videos
		if videos == nil {
			videos = []VideoSummary{}
		}
		out.Result = videos
	}
	return json.Marshal(out)
}
