// Package search is client of image search collaborator: keyword in, list
// of image urls out.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"crsl/config"
)

// ErrNotConfigured is returned when no search endpoint is set.
var ErrNotConfigured = errors.New("image search is not configured")

const maxResponse = 1 << 20

// Searcher looks up images by keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]string, error)
}

// HTTPSearcher queries search endpoint over HTTP. Calls are rate limited and
// concurrent queries for the same keyword share single request.
type HTTPSearcher struct {
	log     *zap.Logger
	cfg     *config.ImageSearchConfig
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
}

func NewHTTPSearcher(cfg *config.ImageSearchConfig, log *zap.Logger) *HTTPSearcher {
	return &HTTPSearcher{
		log:     log.Named("search"),
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

func (s *HTTPSearcher) Search(ctx context.Context, keyword string) ([]string, error) {
	if s.cfg.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	v, err, shared := s.group.Do(keyword, func() (any, error) {
		return s.query(ctx, keyword)
	})
	if err != nil {
		return nil, err
	}
	urls, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected search result type %T", v)
	}
	s.log.Debug("Image search", zap.String("keyword", keyword), zap.Int("results", len(urls)), zap.Bool("shared", shared))
	return urls, nil
}

func (s *HTTPSearcher) query(ctx context.Context, keyword string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("bad search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", keyword)
	q.Set("limit", strconv.Itoa(s.cfg.Limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if key := s.cfg.APIKey.Reveal(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search for %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("image search for %q: %w", keyword, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search for %q: unexpected status %s", keyword, resp.Status)
	}
	return parse(body, s.cfg.Limit)
}

// parse accepts either array of urls or object with "results" array of
// {"url": ...} entries.
func parse(body []byte, limit int) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("image search returned malformed response")
	}
	res := gjson.ParseBytes(body)
	var items gjson.Result
	switch {
	case res.IsArray():
		items = res
	case res.Get("results").IsArray():
		items = res.Get("results")
	default:
		return nil, errors.New("image search response has no results")
	}

	var urls []string
	items.ForEach(func(_, item gjson.Result) bool {
		u := item.String()
		if item.IsObject() {
			u = item.Get("url").String()
		}
		if u != "" {
			urls = append(urls, u)
		}
		return limit <= 0 || len(urls) < limit
	})
	return urls, nil
}
