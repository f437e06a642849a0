// Package metadata resolves a video's title and channel name without the
// search page, from oEmbed and the watch page meta tags.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/source-eva/yteva/internal/logger"
	"github.com/source-eva/yteva/types"
	"github.com/source-eva/yteva/youtube/videoid"
)

const (
	DefaultOEmbedURL     = "https://www.youtube.com/oembed"
	DefaultWatchURL      = "https://www.youtube.com/watch"
	DefaultThumbnailBase = "https://i.ytimg.com/vi/"
)

// Fetcher performs one GET and returns the decoded body. *client.Client
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header) ([]byte, error)
}

// Info is what the fallback sources know about a video.
type Info struct {
	Title  string
	Author string
}

// Complete reports whether both fields are known.
func (i Info) Complete() bool {
	return i.Title != "" && i.Author != ""
}

// Client queries oEmbed and the watch page. Zero endpoint fields use the
// YouTube defaults.
type Client struct {
	fetcher       Fetcher
	OEmbedURL     string
	WatchURL      string
	ThumbnailBase string
}

// New returns a Client using f for every request.
func New(f Fetcher) *Client {
	return &Client{fetcher: f}
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// OEmbed fetches title and author_name from the oEmbed endpoint.
func (c *Client) OEmbed(ctx context.Context, id string) (Info, error) {
	q := url.Values{}
	q.Set("url", videoid.WatchURL(id))
	q.Set("format", "json")

	body, err := c.fetcher.Fetch(ctx, orDefault(c.OEmbedURL, DefaultOEmbedURL)+"?"+q.Encode(), nil)
	if err != nil {
		return Info{}, fmt.Errorf("oembed: %w", err)
	}
	var r oembedResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return Info{}, fmt.Errorf("oembed: decode: %w", err)
	}
	return Info{Title: strings.TrimSpace(r.Title), Author: strings.TrimSpace(r.AuthorName)}, nil
}

// WatchPage reads og:title and the itemprop channel name from the watch page.
func (c *Client) WatchPage(ctx context.Context, id string) (Info, error) {
	q := url.Values{}
	q.Set("v", id)

	body, err := c.fetcher.Fetch(ctx, orDefault(c.WatchURL, DefaultWatchURL)+"?"+q.Encode(), nil)
	if err != nil {
		return Info{}, fmt.Errorf("watch page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Info{}, fmt.Errorf("watch page: parse: %w", err)
	}

	var info Info
	info.Title = attr(doc, `meta[property="og:title"]`, "content")
	if info.Title == "" {
		info.Title = attr(doc, `meta[name="title"]`, "content")
	}
	info.Author = attr(doc, `link[itemprop="name"]`, "content")
	return info, nil
}

// Lookup combines both sources: oEmbed first, then the watch page for any
// field still empty. Failures are logged and leave fields empty.
func (c *Client) Lookup(ctx context.Context, id string) Info {
	log := logger.WithComponent(logger.ComponentMetadata)

	info, err := c.OEmbed(ctx, id)
	if err != nil {
		log.Debug("oembed unavailable", map[string]interface{}{"id": id, "error": err.Error()})
	}
	if info.Complete() {
		return info
	}

	page, err := c.WatchPage(ctx, id)
	if err != nil {
		log.Debug("watch page unavailable", map[string]interface{}{"id": id, "error": err.Error()})
		return info
	}
	if info.Title == "" {
		info.Title = page.Title
	}
	if info.Author == "" {
		info.Author = page.Author
	}
	return info
}

// Thumbnails returns the maxresdefault and hqdefault images of id.
func (c *Client) Thumbnails(id string) []types.Thumbnail {
	base := orDefault(c.ThumbnailBase, DefaultThumbnailBase)
	return []types.Thumbnail{
		{URL: base + id + "/maxresdefault.jpg", Width: 1280, Height: 720},
		{URL: base + id + "/hqdefault.jpg", Width: 480, Height: 360},
	}
}

// DefaultThumbnail returns the hqdefault image of id.
func (c *Client) DefaultThumbnail(id string) types.Thumbnail {
	return c.Thumbnails(id)[1]
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
