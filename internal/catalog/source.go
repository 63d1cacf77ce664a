package catalog

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFetchTimeout = 10 * time.Second
	userAgent           = "spigell/toolmatch"
	acceptEncoding      = "gzip"
)

// ErrDataUnavailable is returned when the catalog or the enrichment data cannot be loaded.
// The fallback path needs the same data, so callers cannot recover from it.
var ErrDataUnavailable = errors.New("tool data unavailable")

// Source provides the catalog and enrichment data for a single request.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Loader reads the catalog and the enrichment documents from local paths or http(s) URLs.
type Loader struct {
	CatalogLocation    string
	EnrichmentLocation string
	HTTPClient         *http.Client
	UserAgent          string

	logger *zap.Logger
}

func NewLoader(catalogLocation, enrichmentLocation string, timeout time.Duration, logger *zap.Logger) *Loader {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{
		CatalogLocation:    strings.TrimSpace(catalogLocation),
		EnrichmentLocation: strings.TrimSpace(enrichmentLocation),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		logger:    logger,
	}
}

// Load fetches both documents concurrently. Any failure is reported as ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	var (
		tools       []*Tool
		enrichments Enrichments
		rejected    []Rejection
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := l.fetch(gctx, l.CatalogLocation)
		if err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		tools, err = DecodeTools(data)
		return err
	})

	g.Go(func() error {
		data, err := l.fetch(gctx, l.EnrichmentLocation)
		if err != nil {
			return fmt.Errorf("fetch enrichment: %w", err)
		}
		enrichments, rejected, err = DecodeEnrichments(data)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	for _, r := range rejected {
		l.logger.Warn("rejecting malformed enrichment record",
			zap.String("tool", r.Tool),
			zap.String("reason", r.Reason),
		)
	}

	l.logger.Debug("tool data loaded",
		zap.Int("tools", len(tools)),
		zap.Int("enrichments", len(enrichments)),
		zap.Int("rejected", len(rejected)),
	)

	return &Dataset{Tools: tools, Enrichments: enrichments, Rejected: rejected}, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, errors.New("location is not configured")
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return l.getRemote(ctx, location)
	}

	return os.ReadFile(location)
}

func (l *Loader) getRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", l.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	l.logger.Debug("make request", zap.String("url", url))

	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// StaticSource serves a dataset that is already in memory.
type StaticSource struct {
	Dataset *Dataset
}

func (s *StaticSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	if s.Dataset == nil {
		return nil, fmt.Errorf("%w: no dataset configured", ErrDataUnavailable)
	}
	return s.Dataset, nil
}
