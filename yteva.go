package yteva

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/source-eva/yteva/client"
	"github.com/source-eva/yteva/downloader"
	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/internal/logger"
	"github.com/source-eva/yteva/internal/mimeext"
	"github.com/source-eva/yteva/internal/sanitize"
	"github.com/source-eva/yteva/linkapi"
	"github.com/source-eva/yteva/types"
	"github.com/source-eva/yteva/youtube/search"
)

const (
	// DefaultChannel is the relay channel the download API uploads to.
	DefaultChannel = "Data_eva"
	// DefaultDownloadDir receives relayed files.
	DefaultDownloadDir = "downloads"
)

// Relay fetches a message's media from a messaging channel into dest and
// returns the path of the written file. It is typically backed by a bot
// account with access to the channel.
type Relay interface {
	Download(ctx context.Context, channel string, messageID int, dest string) (string, error)
}

// Options contains the Client configuration.
//
// Use chainable setters on Client to populate these options.
type Options struct {
	APIKey       string
	HTTPClient   *http.Client
	Language     string
	Region       string
	Timeout      time.Duration
	UserAgent    string
	ProxyURL     string
	Relay        Relay
	Channel      string
	DownloadDir  string
	ProgressFunc func(Progress)
	RateLimitBps int64
	Endpoints    search.Endpoints
	LinkAPIURL   string
	LinkAPIHost  string
}

// Progress describes current progress of a direct download.
type Progress struct {
	TotalSize      int64
	DownloadedSize int64
	Percent        float64
}

// DirectPlay is the outcome of PlayAudioDirect: a live stream URL or the
// relay message holding the file.
type DirectPlay struct {
	LiveURL   string
	MessageID int
	SongName  string
}

// Client is the entry point for lookups and link resolution.
type Client struct {
	options Options
}

// New creates a Client authenticating to the download API with apiKey.
// Search works without a key.
func New(apiKey string) *Client {
	return &Client{options: Options{
		APIKey:      apiKey,
		Channel:     DefaultChannel,
		DownloadDir: DefaultDownloadDir,
	}}
}

// WithHTTPClient sets a custom HTTP client to be used for all network calls.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.options.HTTPClient = hc
	return c
}

// WithLanguage sets the interface language and region sent to YouTube.
func (c *Client) WithLanguage(lang, region string) *Client {
	c.options.Language = strings.TrimSpace(lang)
	c.options.Region = strings.TrimSpace(region)
	return c
}

// WithTimeout sets the per-request timeout of lookups.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.options.Timeout = d
	return c
}

// WithUserAgent overrides the User-Agent of lookups and link requests.
func (c *Client) WithUserAgent(ua string) *Client {
	c.options.UserAgent = ua
	return c
}

// WithProxy routes lookups, link requests and direct downloads through
// proxyURL. It is ignored when WithHTTPClient is set.
func (c *Client) WithProxy(proxyURL string) *Client {
	c.options.ProxyURL = proxyURL
	return c
}

// WithRelay sets the relay used to fetch uploaded media.
func (c *Client) WithRelay(r Relay) *Client {
	c.options.Relay = r
	return c
}

// WithChannel sets the relay channel name.
func (c *Client) WithChannel(name string) *Client {
	if name = strings.TrimSpace(name); name != "" {
		c.options.Channel = name
	}
	return c
}

// WithDownloadDir sets the directory receiving played media.
func (c *Client) WithDownloadDir(dir string) *Client {
	if dir != "" {
		c.options.DownloadDir = dir
	}
	return c
}

// WithProgress registers a callback that receives direct download progress.
func (c *Client) WithProgress(f func(Progress)) *Client {
	c.options.ProgressFunc = f
	return c
}

// WithRateLimit sets a download rate limit in bytes per second. Zero disables limiting.
func (c *Client) WithRateLimit(bytesPerSecond int64) *Client {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	c.options.RateLimitBps = bytesPerSecond
	return c
}

// WithEndpoints overrides the YouTube endpoints used by Search.
func (c *Client) WithEndpoints(e search.Endpoints) *Client {
	c.options.Endpoints = e
	return c
}

// WithLinkAPI overrides the download API base URL and host header.
func (c *Client) WithLinkAPI(baseURL, host string) *Client {
	c.options.LinkAPIURL = baseURL
	c.options.LinkAPIHost = host
	return c
}

// Options returns a copy of the current configuration.
func (c *Client) Options() Options {
	return c.options
}

// Search looks up queryOrURL. limit caps query results; values below 1 use
// search.DefaultLimit.
func (c *Client) Search(ctx context.Context, queryOrURL string, limit int) *search.Search {
	req := search.Request{
		Query:    queryOrURL,
		Limit:    limit,
		Language: c.options.Language,
		Region:   c.options.Region,
		Timeout:  c.options.Timeout,
	}
	return search.NewWith(ctx, req, search.Config{
		HTTPClient: c.options.HTTPClient,
		UserAgent:  c.options.UserAgent,
		ProxyURL:   c.options.ProxyURL,
		Endpoints:  c.options.Endpoints,
	})
}

func (c *Client) links() *linkapi.Client {
	f := client.NewWith(client.Config{
		Timeout:    linkapi.DefaultTimeout,
		UserAgent:  c.options.UserAgent,
		ProxyURL:   c.options.ProxyURL,
		HTTPClient: c.options.HTTPClient,
	})
	return linkapi.New(c.options.APIKey, f).
		WithHost(c.options.LinkAPIHost).
		WithBaseURL(c.options.LinkAPIURL)
}

// downloadClient has no overall timeout; the caller's context bounds a
// download.
func (c *Client) downloadClient() *http.Client {
	if c.options.HTTPClient != nil || c.options.ProxyURL == "" {
		return c.options.HTTPClient
	}
	hc := client.NewWith(client.Config{ProxyURL: c.options.ProxyURL}).HTTPClient
	hc.Timeout = 0
	return hc
}

// FetchAudioLink resolves the audio link of videoID.
func (c *Client) FetchAudioLink(ctx context.Context, videoID string) (*types.MediaLink, error) {
	return c.links().Link(ctx, videoID, types.MediaAudio)
}

// FetchVideoLink resolves the video link of videoID.
func (c *Client) FetchVideoLink(ctx context.Context, videoID string) (*types.MediaLink, error) {
	return c.links().Link(ctx, videoID, types.MediaVideo)
}

// FetchAudioLinkDirect resolves the audio link of videoID from the direct
// endpoint, which also reports the song name.
func (c *Client) FetchAudioLinkDirect(ctx context.Context, videoID string) (*types.MediaLink, error) {
	return c.links().DirectLink(ctx, videoID, types.MediaAudio)
}

// PlayAudio returns a live stream URL, or the local path of the audio file.
func (c *Client) PlayAudio(ctx context.Context, videoID string) (string, error) {
	link, err := c.FetchAudioLink(ctx, videoID)
	if err != nil {
		return "", err
	}
	return c.play(ctx, videoID, types.MediaAudio, link)
}

// PlayVideo returns a live stream URL, or the local path of the video file.
func (c *Client) PlayVideo(ctx context.Context, videoID string) (string, error) {
	link, err := c.FetchVideoLink(ctx, videoID)
	if err != nil {
		return "", err
	}
	return c.play(ctx, videoID, types.MediaVideo, link)
}

// PlayAudioDirect resolves the direct audio link and reports either the live
// URL or the relay message id, without downloading anything.
func (c *Client) PlayAudioDirect(ctx context.Context, videoID string) (DirectPlay, error) {
	link, err := c.FetchAudioLinkDirect(ctx, videoID)
	if err != nil {
		return DirectPlay{}, err
	}
	if link.IsLive() {
		return DirectPlay{LiveURL: link.URL, SongName: link.SongName}, nil
	}
	id, err := ParseMessageID(link.URL)
	if err != nil {
		return DirectPlay{}, err
	}
	return DirectPlay{MessageID: id, SongName: link.SongName}, nil
}

// DownloadSendAudio returns the audio link as reported by the API.
func (c *Client) DownloadSendAudio(ctx context.Context, videoID string) (string, error) {
	link, err := c.FetchAudioLink(ctx, videoID)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// DownloadSendVideo returns the video link as reported by the API.
func (c *Client) DownloadSendVideo(ctx context.Context, videoID string) (string, error) {
	link, err := c.FetchVideoLink(ctx, videoID)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

func (c *Client) play(ctx context.Context, videoID string, media types.MediaType, link *types.MediaLink) (string, error) {
	if link.IsLive() {
		return link.URL, nil
	}

	log := logger.WithComponent(logger.ComponentRelay)
	dest := filepath.Join(c.options.DownloadDir, sanitize.ToSafeFilename(videoID, mimeext.ExtForMedia(media)))

	if IsRelayLink(link.URL) {
		msgID, err := ParseMessageID(link.URL)
		if err != nil {
			return "", err
		}
		if c.options.Relay == nil {
			return "", errs.ErrRelayUnavailable
		}
		log.Debug("relay download", map[string]interface{}{"channel": c.options.Channel, "message": msgID, "dest": dest})
		path, err := c.options.Relay.Download(ctx, c.options.Channel, msgID, dest)
		if err != nil {
			return "", fmt.Errorf("relay download: %w", err)
		}
		return path, nil
	}

	u, err := url.Parse(link.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidMessageLink, link.URL)
	}

	log.Debug("direct download", map[string]interface{}{"url": link.URL, "dest": dest})
	dl := downloader.New(c.downloadClient(), func(p downloader.Progress) {
		if c.options.ProgressFunc != nil {
			c.options.ProgressFunc(Progress{TotalSize: p.TotalSize, DownloadedSize: p.DownloadedSize, Percent: p.Percent})
		}
	}, c.options.RateLimitBps)
	if _, err := dl.Download(ctx, link.URL, dest); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	return dest, nil
}

var relayHosts = map[string]bool{
	"t.me":            true,
	"telegram.me":     true,
	"www.t.me":        true,
	"www.telegram.me": true,
}

// IsRelayLink reports whether link points at a channel message. The scheme
// may be omitted, as in t.me/Data_eva/1234.
func IsRelayLink(link string) bool {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return relayHosts[strings.ToLower(u.Hostname())]
}

// ParseMessageID returns the numeric last path segment of a relay link,
// e.g. 1234 for https://t.me/Data_eva/1234.
func ParseMessageID(link string) (int, error) {
	link = strings.TrimSpace(link)
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		link = u.Path
	}
	link = strings.TrimRight(link, "/")
	seg := link[strings.LastIndex(link, "/")+1:]
	id, err := strconv.Atoi(seg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidMessageLink, link)
	}
	return id, nil
}
