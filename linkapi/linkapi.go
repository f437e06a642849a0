// Package linkapi talks to the YouTube-to-Telegram download API, which
// answers a video id with either a live stream URL or a link to the media
// file it uploaded to a relay channel.
package linkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/source-eva/yteva/client"
	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/internal/logger"
	"github.com/source-eva/yteva/types"
)

const (
	DefaultHost = "api-to-download-songs-from-youtube-to-telegram.p.rapidapi.com"
	// DefaultTimeout is generous: the API converts the media before answering.
	DefaultTimeout = 400 * time.Second
	// DefaultSongName is reported by the direct endpoint when the API omits it.
	DefaultSongName = "Unknown Song"

	pathLink   = "/yt-download"
	pathDirect = "/di-yt-download"

	headerKey  = "x-rapidapi-key"
	headerHost = "x-rapidapi-host"
)

// Fetcher performs one GET and returns the decoded body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header) ([]byte, error)
}

// Client issues link requests. Each call is a single request.
type Client struct {
	apiKey  string
	host    string
	baseURL string
	fetcher Fetcher
}

// New returns a Client authenticating with apiKey. A nil fetcher uses a
// client.Client with DefaultTimeout.
func New(apiKey string, f Fetcher) *Client {
	if f == nil {
		f = client.NewWith(client.Config{Timeout: DefaultTimeout})
	}
	return &Client{apiKey: apiKey, host: DefaultHost, fetcher: f}
}

// WithHost sets the API host sent in x-rapidapi-host and used for requests.
func (c *Client) WithHost(host string) *Client {
	if host != "" {
		c.host = host
	}
	return c
}

// WithBaseURL sends requests to baseURL instead of https://<host>.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type linkResponse struct {
	DownloadLink string `json:"download_link"`
	LinkLive     string `json:"link_live"`
	SongName     string `json:"song Name"`
}

// Link resolves the media link of id from the regular endpoint.
func (c *Client) Link(ctx context.Context, id string, media types.MediaType) (*types.MediaLink, error) {
	r, err := c.request(ctx, pathLink, id, media)
	if err != nil {
		return nil, err
	}
	return toLink(r, r.SongName)
}

// DirectLink resolves the media link of id from the direct endpoint, which
// also reports the song name.
func (c *Client) DirectLink(ctx context.Context, id string, media types.MediaType) (*types.MediaLink, error) {
	r, err := c.request(ctx, pathDirect, id, media)
	if err != nil {
		return nil, err
	}
	name := r.SongName
	if name == "" {
		name = DefaultSongName
	}
	return toLink(r, name)
}

func (c *Client) request(ctx context.Context, path, id string, media types.MediaType) (*linkResponse, error) {
	if c.apiKey == "" {
		return nil, errs.ErrMissingAPIKey
	}
	if media != types.MediaAudio && media != types.MediaVideo {
		return nil, fmt.Errorf("unsupported media type %q", media)
	}

	base := c.baseURL
	if base == "" {
		base = "https://" + c.host
	}
	q := url.Values{}
	q.Set("video_id", id)
	q.Set("media_type", string(media))

	header := http.Header{}
	header.Set(headerKey, c.apiKey)
	header.Set(headerHost, c.host)

	log := logger.WithComponent(logger.ComponentLinkAPI)
	log.Debug("link request", map[string]interface{}{"id": id, "media": string(media), "path": path})

	body, err := c.fetcher.Fetch(ctx, base+path+"?"+q.Encode(), header)
	if err != nil {
		log.Warn("link request failed", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("link request: %w", err)
	}

	var r linkResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("link response: %w", err)
	}
	return &r, nil
}

// toLink prefers the live stream over the download link.
func toLink(r *linkResponse, songName string) (*types.MediaLink, error) {
	switch {
	case r.LinkLive != "":
		return &types.MediaLink{Kind: types.LinkLive, URL: r.LinkLive, SongName: songName}, nil
	case r.DownloadLink != "":
		return &types.MediaLink{Kind: types.LinkDownload, URL: r.DownloadLink, SongName: songName}, nil
	default:
		return nil, errs.ErrNoLink
	}
}
