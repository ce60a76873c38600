package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

const chunkSize = 8 * 1024

// Downloader streams remote files to disk reporting progress as it goes.
type Downloader struct {
	client  *http.Client
	timeout time.Duration
	out     io.Writer
	logger  *zap.Logger
	now     func() time.Time
}

type DownloaderOpt func(d *Downloader)

// WithDownloadTimeout bounds connecting, waiting for the response headers and
// every read of the body. The download as a whole isn't bounded.
func WithDownloadTimeout(timeout time.Duration) DownloaderOpt {
	return func(d *Downloader) {
		d.timeout = timeout
		d.client = newDownloadClient(timeout)
	}
}

// WithProgressOutput sets where progress is reported; stderr by default.
func WithProgressOutput(out io.Writer) DownloaderOpt {
	return func(d *Downloader) {
		d.out = out
	}
}

// WithDownloadLogger sets the structured logger.
func WithDownloadLogger(logger *zap.Logger) DownloaderOpt {
	return func(d *Downloader) {
		d.logger = logger
	}
}

func NewDownloader(opts ...DownloaderOpt) *Downloader {
	d := Downloader{
		client:  newDownloadClient(defaultTimeout),
		timeout: defaultTimeout,
		out:     os.Stderr,
		logger:  zap.NewNop(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(&d)
	}

	return &d
}

func newDownloadClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{Transport: transport}
}

// Download fetches url into destination.
// On failure the partially written destination is left in place.
func (d *Downloader) Download(ctx context.Context, url, destination string) (err error) {
	logdetail(fmt.Sprintf("downloading %s", url))

	start := d.now()
	defer func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			d.logger.Error("download failed", zap.String("url", url), zap.Error(err))
			logfailure(err)
			return
		}
		d.logger.Info("download finished", zap.String("url", url), zap.String("destination", destination))
		color.Green("     ✔ %s", elapsed)
	}()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// cancels the request when no data arrives for a whole timeout window
	stalled := fmt.Errorf("no data received for %s", d.timeout)
	watchdog := time.AfterFunc(d.timeout, func() { cancel(stalled) })
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, interrupted(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: received unexpected response: http%d", ErrNetwork, resp.StatusCode)
	}

	// content length is -1 when the header is missing
	total := max(resp.ContentLength, 0)

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("%w: failed to create file %s: %w", ErrFilesystem, destination, err)
	}
	defer out.Close()

	progress := newReporter(d.out, total)
	defer progress.finish()

	buf := make([]byte, chunkSize)
	var received int64

	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			watchdog.Reset(d.timeout)

			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("%w: failed to write to %s: %w", ErrFilesystem, destination, werr)
			}

			received += int64(n)
			progress.update(Progress{Received: received, Total: total, Elapsed: d.now().Sub(start)})
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, interrupted(ctx, rerr))
		}
	}

	return nil
}

// interrupted replaces a bare cancellation error with the reason of the cancellation.
func interrupted(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return fmt.Errorf("%w: %w", cause, err)
	}
	return err
}
