package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Fetcher opens an asset by its public path (e.g. "/models/bike-style1.glb").
// size is -1 when unknown.
type Fetcher interface {
	Fetch(ctx context.Context, assetPath string) (body io.ReadCloser, size int64, err error)
}

// HTTPFetcher performs a plain GET relative to BaseURL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, assetPath string) (io.ReadCloser, int64, error) {
	u, err := url.JoinPath(f.BaseURL, assetPath)
	if err != nil {
		return nil, 0, fmt.Errorf("asset: bad url %s%s: %w", f.BaseURL, assetPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

// DirFetcher serves asset paths from a local directory. The leading
// "/models" segment is optional so both the public path and a bare file
// name resolve.
type DirFetcher struct {
	Root string
}

func (f *DirFetcher) Fetch(ctx context.Context, assetPath string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	clean := path.Clean("/" + assetPath)
	if strings.HasPrefix(clean, "/models/") {
		clean = clean[len("/models"):]
	}
	full := filepath.Join(f.Root, filepath.FromSlash(clean))

	fh, err := os.Open(full)
	if err != nil {
		return nil, 0, err
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		fh.Close()
		return nil, 0, fmt.Errorf("%s is a directory", full)
	}
	return fh, info.Size(), nil
}

// progressReader reports whole-percent progress while the decoder consumes the body.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(float64)
}

func newProgressReader(r io.Reader, total int64, report func(float64)) io.Reader {
	if report == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, last: -1, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	pct := int(p.read * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	if pct != p.last {
		p.last = pct
		p.report(float64(pct))
	}
	return n, err
}
