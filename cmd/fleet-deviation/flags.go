package main

import (
	"flag"
	"strings"

	"github.com/rshade/fleet-deviation/internal/config"
)

// Flags holds command-line settings. Non-empty values override the loaded
// configuration.
type Flags struct {
	ConfigPath string
	Source     string
	Dir        string
	URL        string
	Format     string
	Listen     string
	History    string
	Serve      bool
}

func parseFlags(args []string) (*Flags, error) {
	f := &Flags{}

	fs := flag.NewFlagSet("fleet-deviation", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&f.Source, "source", "", "Data source: file, http or sample")
	fs.StringVar(&f.Dir, "dir", "", "Directory holding the JSON collections (file source)")
	fs.StringVar(&f.URL, "url", "", "Base URL of the fleet API (http source)")
	fs.StringVar(&f.Format, "format", "", "Report format: json or text")
	fs.StringVar(&f.Listen, "listen", "", "Address to listen on in serve mode")
	fs.StringVar(&f.History, "history", "", "SQLite file for report history")
	fs.BoolVar(&f.Serve, "serve", false, "Serve reports over HTTP instead of printing one")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overlays the flags on cfg. A -dir or -url without -source selects
// the matching source.
func (f *Flags) apply(cfg *config.Config) {
	if f.Dir != "" {
		cfg.Source.Dir = f.Dir
		cfg.Source.Kind = config.SourceFile
	}
	if f.URL != "" {
		cfg.Source.BaseURL = f.URL
		cfg.Source.Kind = config.SourceHTTP
	}
	if f.Source != "" {
		cfg.Source.Kind = strings.ToLower(f.Source)
	}
	if f.Format != "" {
		cfg.Report.Format = strings.ToLower(f.Format)
	}
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	if f.History != "" {
		cfg.History.Path = f.History
	}
}
