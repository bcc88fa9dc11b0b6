package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/uniqline/pkg/dedup"
	"github.com/hazyhaar/uniqline/pkg/report"
	"github.com/hazyhaar/uniqline/pkg/source"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// cmdRun is the default command: dedup one input to stdout.
func cmdRun(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfgPath := configPath(args)
	cfg, found, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "uniqline: %v\n", err)
		return exitUsage
	}

	fs := flag.NewFlagSet("uniqline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: uniqline [flags] [file]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	registerRunFlags(fs, &cfg, cfgPath)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "uniqline: at most one input file, got %d\n", fs.NArg())
		return exitUsage
	}

	logger := newLogger(stderr, logLevel(cfg.Debug, slog.LevelWarn))
	if cfgPath != "" && !found {
		logger.Warn("no config file, using defaults", "path", cfgPath)
	}

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		fmt.Fprintf(stderr, "uniqline: %v\n", err)
		return exitUsage
	}
	engine, err := dedup.New(cfg.Dedup, logger)
	if err != nil {
		fmt.Fprintf(stderr, "uniqline: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, engine, cfg, format, fs.Arg(0), stdin, stdout, stderr, logger); err != nil {
		logger.Error("run failed", "error", err)
		return exitError
	}
	return exitOK
}

func run(ctx context.Context, engine *dedup.Engine, cfg config, format report.Format, path string,
	stdin io.Reader, stdout, stderr io.Writer, logger *slog.Logger) error {
	var (
		src *source.Reader
		err error
	)
	if path == "" || path == "-" {
		src, err = source.New("stdin", stdin)
	} else {
		src, err = source.Open(path)
	}
	if err != nil {
		return err
	}
	if src.Encoding() != source.UTF8 {
		logger.Info("input is not UTF-8, decoded", "input", src.Name(), "encoding", src.Encoding())
	}

	out := bufio.NewWriter(stdout)
	rep, err := engine.Run(ctx, src, dedup.EmitterFunc(func(line string) error {
		if _, err := out.WriteString(line); err != nil {
			return err
		}
		return out.WriteByte('\n')
	}))
	if flushErr := out.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("write output: %w", flushErr)
	}
	if err != nil {
		return err
	}

	summary := report.FromRun(src.Name(), src.Encoding(), rep)
	reportOut := stdout
	if format != report.Text {
		reportOut = stderr
	}
	if err := report.Write(reportOut, summary, format, cfg.Verbose); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.History != "" {
		h, err := report.OpenHistoryDB(cfg.History)
		if err != nil {
			return err
		}
		defer h.Close()
		id, err := h.Record(summary)
		if err != nil {
			return err
		}
		logger.Debug("run recorded", "db", cfg.History, "id", id)
	}
	return nil
}

// registerRunFlags binds the dedup flags to cfg. Short and long names share
// one variable. Current cfg values, from the config file when one was
// read, are the flag defaults.
func registerRunFlags(fs *flag.FlagSet, cfg *config, cfgPath string) {
	o := &cfg.Dedup

	fs.String("config", cfgPath, "YAML config file; flags override its values")

	boolFlag(fs, &o.IgnoreCase, "i", "ignore-case", "compare lines case-insensitively")
	boolFlag(fs, &o.TrimLine, "t", "trim", "ignore leading and trailing whitespace")
	boolFlag(fs, &o.CollapseWhitespace, "w", "whitespace", "treat runs of spaces as a single space")
	boolFlag(fs, &o.RemoveEmptyLines, "e", "remove-empty", "do not print empty lines")
	boolFlag(fs, &o.OnlyPrintRepeated, "r", "repeated", "print only repeated occurrences")
	boolFlag(fs, &o.CSVMode, "c", "csv", "check that every line has the same number of delimiters")
	boolFlag(fs, &cfg.Verbose, "v", "verbose", "print counts, algorithm and run time")
	fs.StringVar(&o.CSVDelimiter, "d", o.CSVDelimiter, "csv delimiter (requires -c)")
	fs.StringVar(&o.CSVDelimiter, "delimiter", o.CSVDelimiter, "csv delimiter (requires -c)")

	fs.BoolVar(&o.StripAccents, "strip-accents", o.StripAccents, "ignore accents when comparing")
	fs.BoolVar(&o.PrintNormalized, "normalized", o.PrintNormalized, "print normalized lines instead of the originals")
	fs.BoolVar(&o.FormatDate, "date", o.FormatDate, "rewrite D/M/YYYY fields as DD/MM/YYYY (requires -c)")
	fs.BoolVar(&o.FormatKey, "key", o.FormatKey, "compact and check 44-digit fiscal keys (requires -c)")
	fs.BoolVar(&o.FormatNumber, "number", o.FormatNumber, "rewrite 1.234,5 and 1,234.5 as 1234.5 (requires -c)")

	fs.TextVar(&o.Hash, "hash", o.Hash, "fingerprint algorithm: xxhash, sha256, sha512 or blake3")
	fs.BoolFunc("2", "shorthand for -hash sha256", func(string) error { o.Hash = dedup.SHA256; return nil })
	fs.BoolFunc("5", "shorthand for -hash sha512", func(string) error { o.Hash = dedup.SHA512; return nil })
	fs.BoolFunc("b", "shorthand for -hash blake3", func(string) error { o.Hash = dedup.BLAKE3; return nil })

	fs.IntVar(&o.Workers, "workers", o.Workers, "normalization workers")
	fs.IntVar(&o.ChunkSize, "chunk-size", o.ChunkSize, "lines read per chunk")

	fs.StringVar(&cfg.Format, "format", cfg.Format, "report format: text, json or yaml")
	fs.StringVar(&cfg.History, "history", cfg.History, "record the run in this SQLite database")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
}

func boolFlag(fs *flag.FlagSet, p *bool, short, long, usage string) {
	fs.BoolVar(p, short, *p, usage)
	fs.BoolVar(p, long, *p, usage)
}
