// Package assets loads images referenced by slides. Every load is bounded by
// configured timeout, slow or broken assets are reported as missing so
// rasterization can proceed without them.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"crsl/config"
	"crsl/utils/images"
)

// ErrTooLarge is returned when asset exceeds configured size limit.
var ErrTooLarge = errors.New("asset is too large")

// Loader fetches and decodes images. Safe for concurrent use.
type Loader struct {
	log      *zap.Logger
	client   *http.Client
	cache    *cache.Cache
	group    singleflight.Group
	timeout  time.Duration
	maxBytes int64
	baseDir  string
}

// Option configures Loader.
type Option func(*Loader)

// WithBaseDir sets directory relative local paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(l *Loader) {
		l.baseDir = dir
	}
}

// WithHTTPClient replaces default http client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.client = c
	}
}

// NewLoader creates loader from configuration.
func NewLoader(cfg *config.AssetsConfig, log *zap.Logger, opts ...Option) *Loader {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	l := &Loader{
		log:      log.Named("assets"),
		client:   &http.Client{},
		cache:    cache.New(ttl, 2*ttl),
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns decoded image, waiting no longer than configured timeout.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New("empty asset source")
	}
	if img, ok := l.cache.Get(src); ok {
		return img.(image.Image), nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ch := l.group.DoChan(src, func() (any, error) {
		// detached from caller so one impatient waiter does not fail others
		fctx, fcancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer fcancel()

		img, err := l.fetch(fctx, src)
		if err != nil {
			return nil, err
		}
		l.cache.SetDefault(src, img)
		return img, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("asset %s: %w", shorten(src), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("asset %s: %w", shorten(src), res.Err)
		}
		return res.Val.(image.Image), nil
	}
}

// Set is result of waiting for slide assets.
type Set map[string]image.Image

// Get returns image for source, nil when it is missing.
func (s Set) Get(src string) image.Image {
	if s == nil {
		return nil
	}
	return s[strings.TrimSpace(src)]
}

// Wait loads all sources concurrently. Assets which fail or do not arrive in
// time are left out of result and logged, only cancellation of ctx is an
// error.
func (l *Loader) Wait(ctx context.Context, srcs []string) (Set, error) {
	type loaded struct {
		src string
		img image.Image
	}

	unique := make(map[string]struct{}, len(srcs))
	results := make(chan loaded, len(srcs))

	eg, egCtx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if _, ok := unique[src]; ok {
			continue
		}
		unique[src] = struct{}{}

		eg.Go(func() error {
			img, err := l.Load(egCtx, src)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.log.Warn("Asset is unavailable, proceeding without it", zap.String("src", shorten(src)), zap.Error(err))
				return nil
			}
			results <- loaded{src, img}
			return nil
		})
	}
	err := eg.Wait()
	close(results)
	if err != nil {
		return nil, err
	}

	set := make(Set, len(unique))
	for r := range results {
		set[r.src] = r.img
	}
	return set, nil
}

func (l *Loader) fetch(ctx context.Context, src string) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err = decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, err = l.download(ctx, src)
	default:
		data, err = l.readFile(src)
	}
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrTooLarge
	}
	return decode(data)
}

func (l *Loader) download(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (l *Loader) readFile(src string) ([]byte, error) {
	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > l.maxBytes {
		return nil, ErrTooLarge
	}
	return os.ReadFile(path)
}

// decode sniffs content and decodes raster or SVG image.
func decode(data []byte) (image.Image, error) {
	if isSVG(data) {
		return images.RasterizeSVG(data, 0, 0, images.SVGOptions{})
	}
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return nil, errors.New("unrecognized image type")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", kind.MIME.Value, err)
	}
	return img, nil
}

func isSVG(data []byte) bool {
	head := bytes.TrimSpace(data[:min(len(data), 512)])
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg")))
}

// decodeDataURI handles "data:[<mediatype>][;base64],<data>".
func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some producers strip padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return data, err
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func shorten(src string) string {
	if len(src) > 96 {
		return src[:96] + "..."
	}
	return src
}
