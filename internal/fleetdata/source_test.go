package fleetdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/fleet-deviation/internal/deviation"
)

const (
	testVessels   = `[{"id": "v1", "Name": "Aurora", "IMONo": 9300001, "VesselType": 1, "DWT": 150000}]`
	testEmissions = `[{"EID": "E-1", "VesselID": 9300001, "TOUTC": "2024-03-31T00:00:00Z", "EEOICO2eW2W": 550}]`
	testRefs      = `[{"RowID": 1, "VesselTypeID": 1, "Size": "All", "Traj": "Min ", "a": 1000, "b": 0, "c": 0, "d": 0, "e": 0}]`
)

func writeCollections(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		VesselsFile:     testVessels,
		EmissionsFile:   testEmissions,
		PPReferenceFile: testRefs,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	writeCollections(t, dir)

	src := NewFileSource(dir, DecodeOptions{}, zerolog.Nop())
	ds, err := src.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "file:"+dir, src.Name())
	require.Len(t, ds.Vessels, 1)
	require.Len(t, ds.Emissions, 1)
	require.Len(t, ds.CurveRows, 1)
	assert.Equal(t, "Min", ds.CurveRows[0].Traj)
}

func TestFileSourceMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, VesselsFile), []byte(testVessels), 0o644))

	_, err := NewFileSource(dir, DecodeOptions{}, zerolog.Nop()).Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), EmissionsFile)
}

func fleetAPI(t *testing.T, status map[string]int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	bodies := map[string]string{
		VesselsPath:     testVessels,
		EmissionsPath:   testEmissions,
		PPReferencePath: testRefs,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if code, ok := status[r.URL.Path]; ok {
			http.Error(w, "unavailable", code)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(body)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestHTTPSource(t *testing.T) {
	server, hits := fleetAPI(t, nil)

	src := NewHTTPSource(server.URL+"/", nil, 2*time.Second, DecodeOptions{}, zerolog.Nop())
	ds, err := src.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "http:"+server.URL, src.Name())
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
	require.Len(t, ds.Vessels, 1)
	assert.Equal(t, "Aurora", ds.Vessels[0].Name)
	require.Len(t, ds.Emissions, 1)
	assert.Equal(t, "E-1", ds.Emissions[0].Ref)
}

func TestHTTPSourceErrorStatus(t *testing.T) {
	server, _ := fleetAPI(t, map[string]int{EmissionsPath: http.StatusInternalServerError})

	_, err := NewHTTPSource(server.URL, server.Client(), 0, DecodeOptions{}, zerolog.Nop()).Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), EmissionsPath)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPSourceFailureCancelsOtherFetches(t *testing.T) {
	var canceled int32
	var inFlight sync.WaitGroup
	inFlight.Add(2)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == VesselsPath {
			// Fail only once the other two fetches are waiting on the server.
			inFlight.Wait()
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		inFlight.Done()
		select {
		case <-r.Context().Done():
			atomic.AddInt32(&canceled, 1)
		case <-release:
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := NewHTTPSource(server.URL, nil, time.Minute, DecodeOptions{}, zerolog.Nop()).Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), VesselsPath)
	assert.Contains(t, err.Error(), "502")
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&canceled) == 2 },
		5*time.Second, 10*time.Millisecond)
}

func TestHTTPSourceCanceledContext(t *testing.T) {
	server, _ := fleetAPI(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(server.URL, nil, time.Second, DecodeOptions{}, zerolog.Nop()).Load(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleSource(t *testing.T) {
	ds, err := NewSampleSource(DecodeOptions{}, zerolog.Nop()).Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, ds.Vessels, 4)
	assert.Len(t, ds.CurveRows, 4)
	assert.NotEmpty(t, ds.Emissions)
	for _, row := range ds.CurveRows {
		assert.NotContains(t, row.Traj, " ")
		assert.Equal(t, "All", row.Size)
	}

	report := deviation.NewEngine(deviation.EngineConfig{}, zerolog.Nop()).Compute(ds.Vessels, ds.Emissions, ds.CurveRows)

	assert.Len(t, report.Results, 3, "the category without reference rows is excluded")
	assert.Len(t, report.Issues, 8)
	assert.Positive(t, report.UnmappedEmissions)
	for _, res := range report.Results {
		assert.Len(t, res.QuarterlyData, 8)
	}
}
