package fleetdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Source provides the collections for one engine run.
type Source interface {
	// Name identifies the source in logs and reports.
	Name() string

	// Load fetches and decodes the vessel, emission and reference
	// collections.
	Load(ctx context.Context) (*Dataset, error)
}

// FileSource reads the collections from JSON files in a directory.
type FileSource struct {
	dir    string
	opts   DecodeOptions
	logger zerolog.Logger
}

// NewFileSource creates a FileSource reading VesselsFile, EmissionsFile and
// PPReferenceFile from dir.
func NewFileSource(dir string, opts DecodeOptions, logger zerolog.Logger) *FileSource {
	return &FileSource{dir: dir, opts: opts, logger: logger}
}

// Name implements Source.
func (s *FileSource) Name() string {
	return "file:" + s.dir
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (*Dataset, error) {
	raw := make(map[string][]byte, 3)
	for _, name := range []string{VesselsFile, EmissionsFile, PPReferenceFile} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		raw[name] = data
	}

	ds, err := Decode(raw[VesselsFile], raw[EmissionsFile], raw[PPReferenceFile], s.opts)
	if err != nil {
		return nil, err
	}
	logLoaded(s.logger, s.Name(), ds)
	return ds, nil
}

// HTTPSource fetches the collections from the fleet HTTP API.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	opts    DecodeOptions
	logger  zerolog.Logger
}

// NewHTTPSource creates an HTTPSource for the API rooted at baseURL.
// A nil client uses a client with the given timeout.
func NewHTTPSource(baseURL string, client *http.Client, timeout time.Duration, opts DecodeOptions, logger zerolog.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 3,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		opts:    opts,
		logger:  logger,
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string {
	return "http:" + s.baseURL
}

// Load implements Source. The three collections are fetched concurrently;
// the first failure cancels the other fetches and is returned.
func (s *HTTPSource) Load(ctx context.Context) (*Dataset, error) {
	paths := []string{VesselsPath, EmissionsPath, PPReferencePath}
	bodies := make([][]byte, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			body, err := s.fetch(gctx, path)
			if err != nil {
				return err
			}
			bodies[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds, err := Decode(bodies[0], bodies[1], bodies[2], s.opts)
	if err != nil {
		return nil, err
	}
	logLoaded(s.logger, s.Name(), ds)
	return ds, nil
}

func (s *HTTPSource) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return body, nil
}

func logLoaded(logger zerolog.Logger, source string, ds *Dataset) {
	logger.Debug().
		Str("source", source).
		Int("vessels", len(ds.Vessels)).
		Int("emissions", len(ds.Emissions)).
		Int("pp_references", len(ds.CurveRows)).
		Msg("fleet data loaded")

	if ds.DefaultedDWT > 0 {
		logger.Warn().
			Str("source", source).
			Int("vessels", ds.DefaultedDWT).
			Msg("vessel DWT missing, using fallback values")
	}
}
