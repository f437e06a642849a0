// Package search implements the video lookup: a free-text query returns a
// list of summaries from the search results page, a URL returns the summary
// of that video, falling back to oEmbed and watch page metadata.
//
// A lookup runs once, inside New/NewWith. The returned *Search is
// immutable and safe for concurrent reads.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/source-eva/yteva/client"
	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/internal/logger"
	"github.com/source-eva/yteva/types"
	"github.com/source-eva/yteva/youtube/initialdata"
	"github.com/source-eva/yteva/youtube/metadata"
	"github.com/source-eva/yteva/youtube/videoid"
	"github.com/source-eva/yteva/youtube/viewcount"
)

const (
	DefaultSearchURL = "https://www.youtube.com/results"
	ChannelBase      = "https://www.youtube.com/channel/"

	// videosOnlyFilter is the sp value restricting results to videos.
	videosOnlyFilter = "EgIQAQ=="
)

// Endpoints overrides the remote URLs. Empty fields use the YouTube defaults.
type Endpoints struct {
	Search     string
	OEmbed     string
	Watch      string
	Thumbnails string
}

// Config holds optional transport settings. Zero values use defaults.
type Config struct {
	HTTPClient *http.Client
	UserAgent  string
	ProxyURL   string
	Endpoints  Endpoints

	fetcher metadata.Fetcher
}

// Search is the immutable outcome of one lookup.
type Search struct {
	request Request
	videoID string
	result  types.LookupResult
	err     error
}

// New runs the lookup described by req with default transport settings.
func New(ctx context.Context, req Request) *Search {
	return NewWith(ctx, req, Config{})
}

// NewWith runs the lookup described by req. It never fails: problems are
// recorded in the result and reported by Err.
func NewWith(ctx context.Context, req Request, cfg Config) *Search {
	if ctx == nil {
		ctx = context.Background()
	}
	req = req.withDefaults()

	l := newLookup(req, cfg)
	s := &Search{request: req}

	id, isURL := videoid.Classify(req.Query)
	if isURL {
		s.videoID = id
		s.result, s.err = l.byURL(ctx, id)
	} else {
		s.result, s.err = l.byQuery(ctx, req.Query)
	}
	if s.err != nil {
		s.result.Error = s.err.Error()
	}
	return s
}

// Result returns a copy of the full result.
func (s *Search) Result() types.LookupResult {
	return s.result.Clone()
}

// HasResults reports whether at least one summary was produced.
func (s *Search) HasResults() bool {
	return s.result.HasResults()
}

// FirstResult returns the first summary, if any.
func (s *Search) FirstResult() (types.VideoSummary, bool) {
	return s.result.First()
}

// Err returns the last failure recorded during the lookup, or nil. A
// non-nil error may accompany a fallback result.
func (s *Search) Err() error {
	return s.err
}

// ErrorMessage returns Err as text, or "".
func (s *Search) ErrorMessage() string {
	return s.result.Error
}

// NextPage reports whether another page can be fetched. Pagination is not
// supported, so it is always false.
func (s *Search) NextPage() bool {
	return false
}

// IsURL reports whether the input was treated as a video URL.
func (s *Search) IsURL() bool {
	return s.result.Mode == types.ModeURL
}

// VideoID returns the identifier extracted from a URL input, or "".
func (s *Search) VideoID() string {
	return s.videoID
}

// Request returns the request with defaults applied.
func (s *Search) Request() Request {
	return s.request
}

// lookup holds the per-lookup transport; it is discarded after NewWith.
type lookup struct {
	req       Request
	fetcher   metadata.Fetcher
	searchURL string
	meta      *metadata.Client
	log       *logger.ComponentLogger
}

func newLookup(req Request, cfg Config) *lookup {
	var f metadata.Fetcher = cfg.fetcher
	if f == nil {
		f = client.NewWith(client.Config{
			Timeout:    req.Timeout,
			UserAgent:  cfg.UserAgent,
			ProxyURL:   cfg.ProxyURL,
			Language:   req.Language,
			Region:     req.Region,
			HTTPClient: cfg.HTTPClient,
		})
	}
	f = timeoutFetcher{next: f, timeout: req.Timeout}

	meta := metadata.New(f)
	meta.OEmbedURL = cfg.Endpoints.OEmbed
	meta.WatchURL = cfg.Endpoints.Watch
	meta.ThumbnailBase = cfg.Endpoints.Thumbnails

	searchURL := cfg.Endpoints.Search
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}

	return &lookup{
		req:       req,
		fetcher:   f,
		searchURL: searchURL,
		meta:      meta,
		log:       logger.WithComponent(logger.ComponentSearch),
	}
}

// results fetches the videos-only search page for query and decodes its
// ytInitialData. It issues exactly one request.
func (l *lookup) results(ctx context.Context, query string) (*initialdata.Data, error) {
	q := url.Values{}
	q.Set("search_query", query)
	q.Set("sp", videosOnlyFilter)

	l.log.Debug("search request", map[string]interface{}{"query": query})
	page, err := l.fetcher.Fetch(ctx, l.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	return initialdata.Parse(page)
}

func (l *lookup) byQuery(ctx context.Context, query string) (types.LookupResult, error) {
	res := types.LookupResult{Mode: types.ModeQuery, Videos: []types.VideoSummary{}}

	data, err := l.results(ctx, query)
	if err != nil {
		l.log.Warn("search failed", map[string]interface{}{"query": query, "kind": errs.KindOf(err).String(), "error": err.Error()})
		res.Status = types.StatusFailed
		return res, err
	}

	data.Walk(func(r *initialdata.VideoRenderer) bool {
		res.Videos = append(res.Videos, summaryFromRenderer(r))
		return len(res.Videos) < l.req.Limit
	})
	if len(res.Videos) == 0 {
		res.Status = types.StatusEmpty
		return res, errs.ErrNoResults
	}
	res.Status = types.StatusOK
	res.Source = types.SourceSearch
	return res, nil
}

func (l *lookup) byURL(ctx context.Context, id string) (types.LookupResult, error) {
	res := types.LookupResult{Mode: types.ModeURL, Status: types.StatusOK}

	data, err := l.results(ctx, id)
	if err != nil {
		l.log.Warn("search by id failed, using metadata", map[string]interface{}{"id": id, "kind": errs.KindOf(err).String(), "error": err.Error()})
	} else {
		var exact, first *initialdata.VideoRenderer
		data.Walk(func(r *initialdata.VideoRenderer) bool {
			if first == nil {
				first = r
			}
			if r.VideoID == id {
				exact = r
				return false
			}
			return true
		})

		switch {
		case exact != nil:
			v := summaryFromRenderer(exact)
			res.Video, res.Source = &v, types.SourceSearch
			return res, nil
		case first != nil:
			// Loose match: the top result is assumed to be the video.
			l.log.Debug("no exact match, using first result", map[string]interface{}{"id": id, "first": first.VideoID})
			v := summaryFromRenderer(first)
			v.ID = id
			v.Link = videoid.WatchURL(id)
			res.Video, res.Source = &v, types.SourceBestEffort
			return res, nil
		}
	}

	v, src := l.fromMetadata(ctx, id)
	res.Video, res.Source = &v, src
	return res, err
}

// fromMetadata builds a summary from oEmbed and the watch page. It cannot
// fail; a panic anywhere below yields a skeleton summary.
func (l *lookup) fromMetadata(ctx context.Context, id string) (v types.VideoSummary, src types.Source) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("metadata fallback panicked", map[string]interface{}{"id": id, "panic": fmt.Sprint(r)})
			v = types.VideoSummary{
				Type:       types.VideoType,
				ID:         id,
				Thumbnails: []types.Thumbnail{l.meta.DefaultThumbnail(id)},
				Link:       videoid.WatchURL(id),
			}
			src = types.SourceSkeleton
		}
	}()

	info := l.meta.Lookup(ctx, id)
	return types.VideoSummary{
		Type:       types.VideoType,
		ID:         id,
		Title:      info.Title,
		Duration:   "0:00",
		ViewCount:  types.ViewCount{Text: "0 views", Short: "0 views"},
		Thumbnails: l.meta.Thumbnails(id),
		Channel:    types.Channel{Name: info.Author},
		Link:       videoid.WatchURL(id),
	}, types.SourceMetadata
}

func summaryFromRenderer(r *initialdata.VideoRenderer) types.VideoSummary {
	views := r.ViewCountText.String()

	thumbs := make([]types.Thumbnail, 0, len(r.Thumbnail.Thumbnails))
	for _, t := range r.Thumbnail.Thumbnails {
		thumbs = append(thumbs, types.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}

	v := types.VideoSummary{
		Type:          types.VideoType,
		ID:            r.VideoID,
		Title:         r.Title.FirstRun(),
		PublishedTime: r.PublishedTimeText.String(),
		Duration:      r.LengthText.String(),
		ViewCount:     types.ViewCount{Text: views, Short: viewcount.Format(views)},
		Thumbnails:    thumbs,
		Channel:       types.Channel{Name: r.OwnerText.FirstRun(), ID: r.ChannelID()},
	}
	if v.Channel.ID != "" {
		v.Channel.Link = ChannelBase + v.Channel.ID
	}
	if v.ID != "" {
		v.Link = videoid.WatchURL(v.ID)
	}
	return v
}

// timeoutFetcher bounds every request by its own deadline.
type timeoutFetcher struct {
	next    metadata.Fetcher
	timeout time.Duration
}

func (f timeoutFetcher) Fetch(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.next.Fetch(ctx, rawURL, header)
}
