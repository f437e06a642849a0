package search

import (
	"strings"
	"time"
)

const (
	DefaultLimit    = 20
	DefaultLanguage = "en"
	DefaultRegion   = "US"
	DefaultTimeout  = 10 * time.Second
)

// Request describes one lookup. Zero fields take the defaults above.
type Request struct {
	// Query is free text or a YouTube URL.
	Query string
	// Limit caps the number of summaries in query mode.
	Limit    int
	Language string
	Region   string
	// Timeout applies to each network request separately.
	Timeout time.Duration
}

func (r Request) withDefaults() Request {
	r.Query = strings.TrimSpace(r.Query)
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Region == "" {
		r.Region = DefaultRegion
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	return r
}
