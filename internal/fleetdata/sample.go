package fleetdata

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/rs/zerolog"
)

// Demo fleet generated by tools/generate-sample-data.
//
//go:embed data/*.json
var sampleFS embed.FS

// SampleSource serves the embedded demo fleet.
type SampleSource struct {
	opts   DecodeOptions
	logger zerolog.Logger
}

// NewSampleSource creates a SampleSource.
func NewSampleSource(opts DecodeOptions, logger zerolog.Logger) *SampleSource {
	return &SampleSource{opts: opts, logger: logger}
}

// Name implements Source.
func (s *SampleSource) Name() string {
	return "sample"
}

// Load implements Source.
func (s *SampleSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := make(map[string][]byte, 3)
	for _, name := range []string{VesselsFile, EmissionsFile, PPReferenceFile} {
		data, err := sampleFS.ReadFile(path.Join("data", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded %s: %w", name, err)
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
