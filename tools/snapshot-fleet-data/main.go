// Package main provides a tool to snapshot the fleet web service collections
// into a directory readable by the file source.
//
// The tool fetches vessels, daily log emissions and Poseidon Principles
// reference rows, validates that they decode, and writes vessels.json,
// daily-log-emissions.json and pp-reference.json.
//
// Usage:
//
//	go run ./tools/snapshot-fleet-data --url http://localhost:3000 [--out-dir ./data] [--dry-run]
//
// Flags:
//
//	--url       Base URL of the fleet web service
//	--out-dir   Directory to write the collections to (default: ./data)
//	--dry-run   Fetch and validate without writing
//	--timeout   Per-request timeout (default: 30s)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rshade/fleet-deviation/internal/fleetdata"
)

type collection struct {
	path string
	file string
}

var collections = []collection{
	{path: fleetdata.VesselsPath, file: fleetdata.VesselsFile},
	{path: fleetdata.EmissionsPath, file: fleetdata.EmissionsFile},
	{path: fleetdata.PPReferencePath, file: fleetdata.PPReferenceFile},
}

func main() {
	baseURL := flag.String("url", "", "Base URL of the fleet web service")
	outDir := flag.String("out-dir", "./data", "Directory to write the collections to")
	dryRun := flag.Bool("dry-run", false, "Fetch and validate without writing")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-request timeout")
	flag.Parse()

	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: --url is required")
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	base := strings.TrimRight(*baseURL, "/")

	bodies := make(map[string][]byte, len(collections))
	for _, c := range collections {
		fmt.Printf("Fetching %s%s...\n", base, c.path)
		body, err := fetch(context.Background(), client, base+c.path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching %s: %v\n", c.path, err)
			os.Exit(1)
		}
		bodies[c.file] = body
	}

	ds, err := fleetdata.Decode(bodies[fleetdata.VesselsFile], bodies[fleetdata.EmissionsFile], bodies[fleetdata.PPReferenceFile], fleetdata.DecodeOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Validation passed: %d vessels, %d emissions, %d reference rows\n",
		len(ds.Vessels), len(ds.Emissions), len(ds.CurveRows))

	if *dryRun {
		fmt.Println("Dry run, nothing written")
		return
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outDir, err)
		os.Exit(1)
	}
	for _, c := range collections {
		path := filepath.Join(*outDir, c.file)
		if err := os.WriteFile(path, bodies[c.file], 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", path, len(bodies[c.file]))
	}
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
