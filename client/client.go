package client

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/language"

	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/internal/logger"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultLanguage = "en"
	defaultRegion   = "US"

	// UserAgentValue is the desktop browser identity sent with every request.
	// The search page markup parsed by this module is the one served to it.
	UserAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	acceptEncodingValue = "gzip, deflate, br"
	maxBodySize         = 32 << 20
)

// ErrBodyTooLarge is returned by ReadBody for bodies above the size limit.
var ErrBodyTooLarge = errors.New("response body too large")

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	// Bodies are decoded by ReadBody, which also understands brotli.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
	Language  string
	Region    string
	// ResponseHeaderTimeout bounds the wait for response headers. Zero uses
	// Timeout.
	ResponseHeaderTimeout time.Duration
	// HTTPClient, when set, is used as is; Timeout and ProxyURL are ignored.
	HTTPClient *http.Client
}

// Client wraps http.Client with default headers. Every call issues exactly
// one request; there is no retry.
type Client struct {
	HTTPClient     *http.Client
	UserAgent      string
	AcceptLanguage string
}

// New creates a new Client with a tuned Transport and default headers.
func New() *Client {
	return NewWith(Config{})
}

// NewWith creates a new client with provided config. Zero values use defaults.
func NewWith(cfg Config) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = UserAgentValue
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		tr := defaultTransport.Clone()
		tr.ResponseHeaderTimeout = timeout
		if cfg.ResponseHeaderTimeout > 0 {
			tr.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
		}
		if cfg.ProxyURL != "" {
			if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
				tr.Proxy = proxyFunc
			} else {
				logger.WithComponent(logger.ComponentClient).Warn("ignoring invalid proxy url", map[string]interface{}{
					"proxy": cfg.ProxyURL,
					"error": err.Error(),
				})
			}
		}
		httpClient = &http.Client{Timeout: timeout, Transport: tr}
	}

	lang := cfg.Language
	if lang == "" {
		lang = defaultLanguage
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	return &Client{
		HTTPClient:     httpClient,
		UserAgent:      ua,
		AcceptLanguage: AcceptLanguage(lang, region),
	}
}

// Get performs a single GET request carrying the client's User-Agent,
// Accept-Language and Accept-Encoding headers plus any extra headers.
// The caller owns the response body.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	ua := c.UserAgent
	if ua == "" {
		ua = UserAgentValue
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Encoding", acceptEncodingValue)
	if c.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.AcceptLanguage)
	}
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger.WithComponent(logger.ComponentClient).Debug("GET", map[string]interface{}{"url": rawURL})
	return httpClient.Do(req)
}

// Fetch performs Get and returns the decoded body. Responses outside 2xx are
// reported as *errs.StatusError.
func (c *Client) Fetch(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &errs.StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return ReadBody(resp)
}

// ReadBody reads resp.Body, undoing br, gzip or deflate Content-Encoding.
// It does not close the body.
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create deflate reader: %w", err)
		}
		defer zr.Close()
		reader = zr
	}

	return readLimited(reader, maxBodySize)
}

// readLimited reads r fully, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// AcceptLanguage builds "<lang>-<REGION>,<lang>;q=0.9". Well-formed subtags
// are canonicalized; anything else is passed through verbatim.
func AcceptLanguage(lang, region string) string {
	base, err := language.ParseBase(lang)
	if err != nil {
		return fmt.Sprintf("%s-%s,%s;q=0.9", lang, region, lang)
	}
	reg, err := language.ParseRegion(region)
	if err != nil {
		return fmt.Sprintf("%s-%s,%s;q=0.9", base, region, base)
	}
	tag, err := language.Compose(base, reg)
	if err != nil {
		return fmt.Sprintf("%s-%s,%s;q=0.9", base, reg, base)
	}
	return fmt.Sprintf("%s,%s;q=0.9", tag, base)
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy url %q needs a scheme and host", raw)
	}
	return http.ProxyURL(u), nil
}
