package wordpress

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/fault"
)

const chunkSize = 32 * 1024

// Fetcher downloads release archives over HTTP.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher. Every download is bounded by timeout.
func NewFetcher(logger zerolog.Logger, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch streams url into a new file under dir and returns its path. A
// non-2xx response is a transport failure and leaves nothing on disk.
func (f *Fetcher) Fetch(ctx context.Context, url, dir string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fault.Wrap(fault.KindTransport, err, "build request for %s", url)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", classify(ctx, err, "download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fault.New(fault.KindTransport, "download %s: server returned %d", url, resp.StatusCode)
	}

	out, err := os.CreateTemp(dir, ".download-*.zip")
	if err != nil {
		return "", fault.Wrap(fault.KindFilesystem, err, "create download file")
	}

	n, err := io.CopyBuffer(out, resp.Body, make([]byte, chunkSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out.Name())
		return "", classify(ctx, err, "download %s", url)
	}

	f.logger.Info().
		Str("url", url).
		Int64("bytes", n).
		Dur("duration", time.Since(start)).
		Msg("archive downloaded")

	return out.Name(), nil
}

func classify(ctx context.Context, err error, format string, args ...any) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, err, format, args...)
	}
	return fault.Wrap(fault.KindTransport, err, format, args...)
}
