package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/source-eva/yteva/client"
	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/internal/logger"
)

const (
	temporaryFileSuffix = ".tmp"     // suffix for temp download
	copyBufferSizeBytes = 32 * 1024  // 32KB
	progressEveryBytes  = 256 * 1024 // progress callback granularity
	headerRange         = "Range"
	headerContentRange  = "Content-Range"
	headerUserAgent     = "User-Agent"
	headerAccept        = "Accept"
	headerAcceptEnc     = "Accept-Encoding"
)

// Progress holds information about download progress.
type Progress struct {
	TotalSize      int64
	DownloadedSize int64
	Percent        float64
}

// Downloader fetches a media file with a single GET, resuming a previous
// partial download when its temporary file is present.
type Downloader struct {
	Client       *http.Client
	ProgressFunc func(Progress)

	limiter *rate.Limiter
}

// New creates a new downloader instance.
// If client is nil, a default http.Client is used. rateLimitBps=0 disables limiting.
func New(httpClient *http.Client, progressFunc func(Progress), rateLimitBps int64) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	d := &Downloader{Client: httpClient, ProgressFunc: progressFunc}
	if rateLimitBps > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(rateLimitBps), copyBufferSizeBytes)
	}
	return d
}

// Download saves urlStr to outputPath and returns the final size. Data is
// written to outputPath+".tmp" and renamed once complete.
func (d *Downloader) Download(ctx context.Context, urlStr string, outputPath string) (int64, error) {
	log := logger.WithComponent(logger.ComponentDownloader)

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}

	tmpPath := outputPath + temporaryFileSuffix
	var offset int64
	if fi, err := os.Stat(tmpPath); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(headerUserAgent, client.UserAgentValue)
	req.Header.Set(headerAccept, "*/*")
	req.Header.Set(headerAcceptEnc, "identity")
	if offset > 0 {
		req.Header.Set(headerRange, fmt.Sprintf("bytes=%d-", offset))
	}

	log.Debug("download start", map[string]interface{}{"url": urlStr, "output": outputPath, "offset": offset})
	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	flags := os.O_CREATE | os.O_WRONLY
	total := int64(0)
	switch {
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		flags |= os.O_APPEND
		total = totalFromContentRange(resp.Header.Get(headerContentRange))
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		// The temporary file already holds everything.
		log.Debug("temporary file complete", map[string]interface{}{"output": outputPath, "size": offset})
		return offset, os.Rename(tmpPath, outputPath)
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		flags |= os.O_TRUNC
		offset = 0
		if resp.ContentLength > 0 {
			total = resp.ContentLength
		}
	default:
		return 0, &errs.StatusError{URL: urlStr, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if total == 0 && resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}

	outFile, err := os.OpenFile(tmpPath, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open temporary file: %w", err)
	}

	downloaded, copyErr := d.copy(ctx, outFile, resp.Body, offset, total)
	closeErr := outFile.Close()
	if copyErr != nil {
		return downloaded, copyErr
	}
	if closeErr != nil {
		return downloaded, fmt.Errorf("close temporary file: %w", closeErr)
	}
	if downloaded == 0 {
		_ = os.Remove(tmpPath)
		return 0, errors.New("empty download: 0 bytes written")
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return downloaded, err
	}
	log.Info("download complete", map[string]interface{}{"output": outputPath, "size": downloaded})
	return downloaded, nil
}

// copy streams src into dst, honoring the rate limit and reporting progress.
func (d *Downloader) copy(ctx context.Context, dst io.Writer, src io.Reader, downloaded, total int64) (int64, error) {
	buf := make([]byte, copyBufferSizeBytes)
	var sinceReport int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if d.limiter != nil {
				if err := d.limiter.WaitN(ctx, n); err != nil {
					return downloaded, err
				}
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return downloaded, fmt.Errorf("write chunk: %w", werr)
			}
			downloaded += int64(n)
			sinceReport += int64(n)
			if sinceReport >= progressEveryBytes {
				d.report(downloaded, total)
				sinceReport = 0
			}
		}
		if rerr == io.EOF {
			d.report(downloaded, total)
			return downloaded, nil
		}
		if rerr != nil {
			return downloaded, fmt.Errorf("read response body: %w", rerr)
		}
	}
}

func (d *Downloader) report(downloaded, total int64) {
	if d.ProgressFunc == nil {
		return
	}
	p := Progress{TotalSize: total, DownloadedSize: downloaded}
	if total > 0 {
		p.Percent = float64(downloaded) / float64(total) * 100
	}
	d.ProgressFunc(p)
}

// totalFromContentRange parses "bytes 100-199/200".
func totalFromContentRange(cr string) int64 {
	i := strings.LastIndex(cr, "/")
	if i < 0 {
		return 0
	}
	v, err := strconv.ParseInt(cr[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
