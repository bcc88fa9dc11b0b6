package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/uniqline/pkg/dedup"
)

// config is the YAML config file layout. Command-line flags override it.
type config struct {
	Dedup   dedup.Options `yaml:"dedup"`
	Format  string        `yaml:"format"`
	Verbose bool          `yaml:"verbose"`
	Debug   bool          `yaml:"debug"`
	History string        `yaml:"history"`
	Addr    string        `yaml:"addr"`
}

func defaultConfig() config {
	return config{
		Dedup:  dedup.DefaultOptions(),
		Format: "text",
		Addr:   ":8421",
	}
}

// loadConfig reads path over the defaults. An empty path or a missing file
// yields the defaults; found reports whether a file was read.
func loadConfig(path string) (cfg config, found bool, err error) {
	cfg = defaultConfig()
	if path == "" {
		return cfg, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, true, nil
}

// configPath finds the -config value ahead of flag parsing, so that the
// file provides the defaults the other flags override.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logLevel maps the debug switch to a level; base is the default level of
// the subcommand.
func logLevel(debug bool, base slog.Level) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return base
}
