package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/source-eva/yteva"
	"github.com/source-eva/yteva/internal/logger"
	"github.com/source-eva/yteva/youtube/search"
	"github.com/source-eva/yteva/youtube/videoid"
)

func main() {
	var (
		flagLimit      int
		flagLang       string
		flagRegion     string
		flagTimeout    time.Duration
		flagUA         string
		flagProxy      string
		flagLink       string
		flagDirect     bool
		flagDownload   string
		flagOutput     string
		flagChannel    string
		flagRateLimit  string
		flagNoProgress bool
	)

	flag.IntVar(&flagLimit, "limit", env.Int("YTEVA_LIMIT", search.DefaultLimit), "Max results for a text query")
	flag.StringVar(&flagLang, "lang", env.Str("YTEVA_LANG", search.DefaultLanguage), "Interface language sent to YouTube")
	flag.StringVar(&flagRegion, "region", env.Str("YTEVA_REGION", search.DefaultRegion), "Region sent to YouTube")
	flag.DurationVar(&flagTimeout, "timeout", env.Duration("YTEVA_TIMEOUT", search.DefaultTimeout), "Per-request timeout (e.g., 10s)")
	flag.StringVar(&flagUA, "ua", "", "Override User-Agent header")
	flag.StringVar(&flagProxy, "proxy", env.Str("YTEVA_PROXY", ""), "Proxy URL (http/https/socks5)")
	flag.StringVar(&flagLink, "link", "", "Resolve a download link instead of searching: audio or video")
	flag.BoolVar(&flagDirect, "direct", false, "Use the direct link endpoint (audio only)")
	flag.StringVar(&flagDownload, "download", "", "Fetch the media of the first result: audio or video")
	flag.StringVar(&flagOutput, "output", env.Str("YTEVA_DOWNLOAD_DIR", yteva.DefaultDownloadDir), "Directory for downloaded media")
	flag.StringVar(&flagChannel, "channel", env.Str("YTEVA_CHANNEL", yteva.DefaultChannel), "Relay channel name")
	flag.StringVar(&flagRateLimit, "rate-limit", "", "Download rate limit (e.g., 2MiB/s, 500KiB/s)")
	flag.BoolVar(&flagNoProgress, "no-progress", false, "Disable progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <query_or_video_url>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nEnvironment: YTEVA_API_KEY, YTEVA_LOG_LEVEL, YTEVA_LOG_FORMAT, YTEVA_LOG_OUTPUT")
	}

	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := strings.TrimSpace(strings.Join(flag.Args(), " "))

	if l, err := logger.CreateLoggerFromConfig(logger.EnvironmentConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log configuration: %v\n", err)
		os.Exit(2)
	} else {
		logger.SetGlobalLogger(l)
	}
	log := logger.WithComponent(logger.ComponentApp)
	log.Debug("start", map[string]interface{}{"input": input, "link": flagLink, "download": flagDownload})

	c := yteva.New(env.Str("YTEVA_API_KEY", "")).
		WithLanguage(flagLang, flagRegion).
		WithTimeout(flagTimeout).
		WithUserAgent(flagUA).
		WithProxy(flagProxy).
		WithChannel(flagChannel).
		WithDownloadDir(flagOutput).
		WithRateLimit(parseRate(flagRateLimit))
	if !flagNoProgress {
		c = c.WithProgress(func(p yteva.Progress) {
			if p.TotalSize > 0 {
				_, _ = fmt.Fprintf(os.Stderr, "Downloaded %.1f%%\r", p.Percent)
			}
		})
	}

	ctx := context.Background()
	var err error
	switch {
	case flagLink != "":
		err = runLink(ctx, c, input, flagLink, flagDirect)
	case flagDownload != "":
		err = runDownload(ctx, c, input, flagDownload)
	default:
		s := c.Search(ctx, input, flagLimit)
		err = printJSON(s.Result())
		if err == nil && s.Err() != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", s.Err())
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveID returns the video id of input, searching for it when input is
// a free-text query.
func resolveID(ctx context.Context, c *yteva.Client, input string) (string, error) {
	if id, ok := videoid.Classify(input); ok {
		return id, nil
	}
	if videoid.IsID(input) {
		return input, nil
	}
	first, ok := c.Search(ctx, input, 1).FirstResult()
	if !ok {
		return "", fmt.Errorf("no video found for %q", input)
	}
	return first.ID, nil
}

func runLink(ctx context.Context, c *yteva.Client, input, media string, direct bool) error {
	id, err := resolveID(ctx, c, input)
	if err != nil {
		return err
	}
	switch {
	case direct && media == "audio":
		play, err := c.PlayAudioDirect(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(play)
	case direct:
		return errors.New("-direct supports audio only")
	case media == "audio":
		link, err := c.FetchAudioLink(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(link)
	case media == "video":
		link, err := c.FetchVideoLink(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(link)
	default:
		return fmt.Errorf("unknown media type %q", media)
	}
}

func runDownload(ctx context.Context, c *yteva.Client, input, media string) error {
	id, err := resolveID(ctx, c, input)
	if err != nil {
		return err
	}
	var path string
	switch media {
	case "audio":
		path, err = c.PlayAudio(ctx, id)
	case "video":
		path, err = c.PlayVideo(ctx, id)
	default:
		return fmt.Errorf("unknown media type %q", media)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nSaved: %s\n", path)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseRate parses strings like "2MiB/s", "500KiB/s" or "64000" into bytes
// per second. Invalid input disables limiting.
func parseRate(s string) int64 {
	s = strings.TrimSuffix(strings.TrimSpace(strings.ToUpper(s)), "/S")
	if s == "" {
		return 0
	}
	units := []struct {
		suffix string
		mul    float64
	}{
		{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30},
		{"KB", 1e3}, {"MB", 1e6}, {"GB", 1e9},
	}
	mul := 1.0
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s, mul = strings.TrimSuffix(s, u.suffix), u.mul
			break
		}
	}
	var val float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &val); err != nil || val <= 0 {
		return 0
	}
	return int64(val * mul)
}
