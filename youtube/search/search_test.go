package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-eva/yteva/client"
	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/types"
)

type renderer struct {
	ID, Title, Owner, OwnerID, Length, Views, Published string
}

func (r renderer) toJSON() map[string]interface{} {
	m := map[string]interface{}{
		"videoId": r.ID,
		"title":   map[string]interface{}{"runs": []interface{}{map[string]interface{}{"text": r.Title}}},
		"ownerText": map[string]interface{}{"runs": []interface{}{map[string]interface{}{
			"text": r.Owner,
			"navigationEndpoint": map[string]interface{}{
				"browseEndpoint": map[string]interface{}{"browseId": r.OwnerID},
			},
		}}},
		"thumbnail": map[string]interface{}{"thumbnails": []interface{}{
			map[string]interface{}{"url": "https://i.ytimg.com/vi/" + r.ID + "/hq720.jpg", "width": 720, "height": 404},
		}},
	}
	if r.Length != "" {
		m["lengthText"] = map[string]interface{}{"simpleText": r.Length}
	}
	if r.Views != "" {
		m["viewCountText"] = map[string]interface{}{"simpleText": r.Views}
	}
	if r.Published != "" {
		m["publishedTimeText"] = map[string]interface{}{"simpleText": r.Published}
	}
	return m
}

func searchPage(rs ...renderer) string {
	items := []interface{}{map[string]interface{}{"shelfRenderer": map[string]interface{}{}}}
	for _, r := range rs {
		items = append(items, map[string]interface{}{"videoRenderer": r.toJSON()})
	}
	data := map[string]interface{}{
		"contents": map[string]interface{}{
			"twoColumnSearchResultsRenderer": map[string]interface{}{
				"primaryContents": map[string]interface{}{
					"sectionListRenderer": map[string]interface{}{
						"contents": []interface{}{
							map[string]interface{}{"itemSectionRenderer": map[string]interface{}{"contents": items}},
						},
					},
				},
			},
		},
	}
	b, _ := json.Marshal(data)
	return `<html><body><script>var ytInitialData = ` + string(b) + `;</script></body></html>`
}

type fakeYouTube struct {
	t          *testing.T
	searchPage string
	searchCode int
	searchWait time.Duration
	oembed     string

	mu       sync.Mutex
	hits     map[string]int
	queries  []string
	filters  []string
	langs    []string
	agents   []string
	endpoint Endpoints
}

func newFakeYouTube(t *testing.T) *fakeYouTube {
	f := &fakeYouTube{t: t, hits: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		f.record("results", r)
		if f.searchWait > 0 {
			time.Sleep(f.searchWait)
		}
		if f.searchCode != 0 {
			w.WriteHeader(f.searchCode)
			return
		}
		_, _ = w.Write([]byte(f.searchPage))
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		f.record("oembed", r)
		if f.oembed == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(f.oembed))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		f.record("watch", r)
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Watch Title"></head>` +
			`<body><link itemprop="name" content="Watch Channel"></body></html>`))
	})
	mux.HandleFunc("/vi/", func(w http.ResponseWriter, r *http.Request) {
		f.record("thumbnail", r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f.endpoint = Endpoints{
		Search:     srv.URL + "/results",
		OEmbed:     srv.URL + "/oembed",
		Watch:      srv.URL + "/watch",
		Thumbnails: srv.URL + "/vi/",
	}
	return f
}

func (f *fakeYouTube) record(name string, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[name]++
	if name == "results" {
		f.queries = append(f.queries, r.URL.Query().Get("search_query"))
		f.filters = append(f.filters, r.URL.Query().Get("sp"))
		f.langs = append(f.langs, r.Header.Get("Accept-Language"))
		f.agents = append(f.agents, r.Header.Get("User-Agent"))
	}
}

func (f *fakeYouTube) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[name]
}

func (f *fakeYouTube) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

func (f *fakeYouTube) lookup(req Request) *Search {
	return NewWith(context.Background(), req, Config{Endpoints: f.endpoint})
}

var (
	first  = renderer{ID: "aaaaaaaaaaa", Title: "First", Owner: "Chan A", OwnerID: "UCA", Length: "3:21", Views: "1,234,567 views", Published: "1 year ago"}
	second = renderer{ID: "bbbbbbbbbbb", Title: "Second", Owner: "Chan B", OwnerID: "UCB", Length: "10:00", Views: "950 views"}
	third  = renderer{ID: "ccccccccccc", Title: "Third", Views: "2,500,000,000 views"}
)

func TestQuery_LimitAndSingleRequest(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first, second)

	s := f.lookup(Request{Query: "test", Limit: 1, Language: "de", Region: "AT"})

	require.NoError(t, s.Err())
	assert.False(t, s.IsURL())
	res := s.Result()
	require.Len(t, res.Videos, 1)
	assert.Equal(t, "aaaaaaaaaaa", res.Videos[0].ID)
	assert.Equal(t, types.StatusOK, res.Status)
	assert.Equal(t, types.SourceSearch, res.Source)

	assert.Equal(t, 1, f.total(), "exactly one request")
	assert.Equal(t, []string{"test"}, f.queries)
	assert.Equal(t, []string{"EgIQAQ=="}, f.filters)
	assert.Equal(t, []string{"de-AT,de;q=0.9"}, f.langs)
	assert.Equal(t, []string{client.UserAgentValue}, f.agents)
}

func TestQuery_SummaryFields(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first, second, third)

	s := f.lookup(Request{Query: "lofi", Limit: 10})

	res := s.Result()
	require.Len(t, res.Videos, 3)

	v := res.Videos[0]
	assert.Equal(t, types.VideoType, v.Type)
	assert.Equal(t, "First", v.Title)
	assert.Equal(t, "3:21", v.Duration)
	assert.Equal(t, "1 year ago", v.PublishedTime)
	assert.Equal(t, types.ViewCount{Text: "1,234,567 views", Short: "1.2M views"}, v.ViewCount)
	assert.Equal(t, types.Channel{Name: "Chan A", ID: "UCA", Link: "https://www.youtube.com/channel/UCA"}, v.Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", v.Link)
	require.Len(t, v.Thumbnails, 1)
	assert.Equal(t, 720, v.Thumbnails[0].Width)

	assert.Equal(t, "950 views", res.Videos[1].ViewCount.Short)

	v = res.Videos[2]
	assert.Equal(t, "2.5B views", v.ViewCount.Short)
	assert.Empty(t, v.Channel.Name)
	assert.Empty(t, v.Channel.Link)
	assert.Empty(t, v.Duration)
	assert.Empty(t, v.PublishedTime)
}

func TestQuery_DefaultLimit(t *testing.T) {
	rs := make([]renderer, 25)
	for i := range rs {
		rs[i] = renderer{ID: fmt.Sprintf("id%09d", i), Title: "t"}
	}
	f := newFakeYouTube(t)
	f.searchPage = searchPage(rs...)

	s := f.lookup(Request{Query: "many"})

	assert.Len(t, s.Result().Videos, DefaultLimit)
	assert.Equal(t, DefaultLimit, s.Request().Limit)
}

func TestQuery_NoResults(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage()

	s := f.lookup(Request{Query: "nothing"})

	assert.ErrorIs(t, s.Err(), errs.ErrNoResults)
	assert.False(t, s.HasResults())
	res := s.Result()
	assert.Equal(t, types.StatusEmpty, res.Status)
	assert.NotNil(t, res.Videos)
	assert.Empty(t, res.Videos)
	assert.Equal(t, "no results found", s.ErrorMessage())
	_, ok := s.FirstResult()
	assert.False(t, ok)
}

func TestQuery_NoData(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = "<html><body>consent wall</body></html>"

	s := f.lookup(Request{Query: "x"})

	assert.ErrorIs(t, s.Err(), errs.ErrNoData)
	assert.Equal(t, errs.KindParse, errs.KindOf(s.Err()))
	assert.Equal(t, types.StatusFailed, s.Result().Status)
	assert.Empty(t, s.Result().Videos)
	assert.Contains(t, s.ErrorMessage(), "no data found")
}

func TestQuery_TransportError(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchCode = http.StatusTooManyRequests

	s := f.lookup(Request{Query: "x"})

	var statusErr *errs.StatusError
	require.True(t, errors.As(s.Err(), &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, errs.KindTransport, errs.KindOf(s.Err()))
	assert.False(t, s.HasResults())
	assert.Equal(t, 1, f.total(), "no retry")
}

func TestQuery_Timeout(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first)
	f.searchWait = 300 * time.Millisecond

	s := f.lookup(Request{Query: "slow", Timeout: 50 * time.Millisecond})

	require.Error(t, s.Err())
	assert.Equal(t, errs.KindTransport, errs.KindOf(s.Err()))
}

func TestURL_ExactMatch(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first, second)

	s := f.lookup(Request{Query: "https://youtu.be/bbbbbbbbbbb"})

	require.NoError(t, s.Err())
	assert.True(t, s.IsURL())
	assert.Equal(t, "bbbbbbbbbbb", s.VideoID())
	v, ok := s.FirstResult()
	require.True(t, ok)
	assert.Equal(t, "bbbbbbbbbbb", v.ID)
	assert.Equal(t, "Second", v.Title)
	assert.Equal(t, types.SourceSearch, s.Result().Source)
	assert.Equal(t, []string{"bbbbbbbbbbb"}, f.queries)
	assert.Equal(t, 1, f.total())
}

func TestURL_BestEffortKeepsTargetID(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first, second)

	s := f.lookup(Request{Query: "https://www.youtube.com/watch?v=zzzzzzzzzzz"})

	require.NoError(t, s.Err())
	res := s.Result()
	require.NotNil(t, res.Video)
	assert.Equal(t, types.SourceBestEffort, res.Source)
	assert.Equal(t, "zzzzzzzzzzz", res.Video.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=zzzzzzzzzzz", res.Video.Link)
	assert.Equal(t, "First", res.Video.Title)
	assert.Equal(t, 1, f.total())
}

func TestURL_MetadataFallback(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage()
	f.oembed = `{"title":"OEmbed Title","author_name":"OEmbed Author"}`

	s := f.lookup(Request{Query: "https://www.youtube.com/shorts/dQw4w9WgXcQ"})

	require.NoError(t, s.Err())
	res := s.Result()
	require.NotNil(t, res.Video)
	assert.Equal(t, types.SourceMetadata, res.Source)

	v := *res.Video
	assert.Equal(t, "dQw4w9WgXcQ", v.ID)
	assert.Equal(t, "OEmbed Title", v.Title)
	assert.Equal(t, "OEmbed Author", v.Channel.Name)
	assert.Empty(t, v.Channel.ID)
	assert.Empty(t, v.Channel.Link)
	assert.Empty(t, v.PublishedTime)
	assert.Equal(t, "0:00", v.Duration)
	assert.Equal(t, types.ViewCount{Text: "0 views", Short: "0 views"}, v.ViewCount)
	require.Len(t, v.Thumbnails, 2)
	assert.True(t, strings.HasSuffix(v.Thumbnails[0].URL, "/vi/dQw4w9WgXcQ/maxresdefault.jpg"))
	assert.True(t, strings.HasSuffix(v.Thumbnails[1].URL, "/vi/dQw4w9WgXcQ/hqdefault.jpg"))

	assert.Equal(t, 0, f.count("thumbnail"), "thumbnails are synthesized")
	assert.Equal(t, 0, f.count("watch"), "oEmbed was complete")
}

func TestURL_SearchFailureStillProducesResult(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchCode = http.StatusInternalServerError

	s := f.lookup(Request{Query: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})

	assert.True(t, s.HasResults())
	assert.Error(t, s.Err())
	assert.NotEmpty(t, s.ErrorMessage())

	res := s.Result()
	assert.Equal(t, types.StatusOK, res.Status)
	assert.Equal(t, types.SourceMetadata, res.Source)
	assert.Equal(t, "Watch Title", res.Video.Title)
	assert.Equal(t, "Watch Channel", res.Video.Channel.Name)
	assert.Equal(t, 1, f.count("watch"))
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(_ context.Context, rawURL string, _ http.Header) ([]byte, error) {
	if strings.Contains(rawURL, "oembed") {
		panic("broken fetcher")
	}
	return nil, errors.New("offline")
}

func TestURL_SkeletonOnPanic(t *testing.T) {
	s := NewWith(context.Background(),
		Request{Query: "https://youtu.be/dQw4w9WgXcQ"},
		Config{fetcher: panickingFetcher{}},
	)

	res := s.Result()
	require.NotNil(t, res.Video)
	assert.Equal(t, types.SourceSkeleton, res.Source)
	assert.Equal(t, "dQw4w9WgXcQ", res.Video.ID)
	assert.Empty(t, res.Video.Title)
	assert.Empty(t, res.Video.Duration)
	assert.Empty(t, res.Video.ViewCount.Text)
	require.Len(t, res.Video.Thumbnails, 1)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", res.Video.Thumbnails[0].URL)
	assert.EqualError(t, s.Err(), "search request: offline")
}

func TestSearch_NextPageAndImmutability(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first, second)

	s := f.lookup(Request{Query: "test"})
	assert.False(t, s.NextPage())

	res := s.Result()
	res.Videos[0].Title = "mutated"
	res.Videos = res.Videos[:0]

	again := s.Result()
	require.Len(t, again.Videos, 2)
	assert.Equal(t, "First", again.Videos[0].Title)
}

func TestSearch_JSONOutput(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first)

	b, err := json.Marshal(f.lookup(Request{Query: "test"}).Result())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"has_results":true`)
	assert.Contains(t, string(b), `"is_url":false`)
	assert.NotContains(t, string(b), `"error"`)
}

func TestLookup_TransportHonorsLongTimeout(t *testing.T) {
	l := newLookup(Request{Query: "x", Timeout: 15 * time.Second}.withDefaults(), Config{})

	tf, ok := l.fetcher.(timeoutFetcher)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, tf.timeout)
	c, ok := tf.next.(*client.Client)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, c.HTTPClient.Timeout)
	assert.Equal(t, 15*time.Second, c.HTTPClient.Transport.(*http.Transport).ResponseHeaderTimeout)
}

func TestQuery_SlowServerWithinTimeout(t *testing.T) {
	f := newFakeYouTube(t)
	f.searchPage = searchPage(first)
	f.searchWait = 300 * time.Millisecond

	s := f.lookup(Request{Query: "slow", Timeout: 5 * time.Second})

	require.NoError(t, s.Err())
	assert.True(t, s.HasResults())
}
