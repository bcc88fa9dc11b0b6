package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/hazyhaar/uniqline/pkg/report"
)

func cmdHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to config file")
	dbPath := fs.String("db", "", "history database (default: history from config)")
	limit := fs.Int("n", 20, "number of runs to show, 0 for all")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, _, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "uniqline: %v\n", err)
		return exitUsage
	}
	path := *dbPath
	if path == "" {
		path = cfg.History
	}
	if path == "" {
		fmt.Fprintln(stderr, "uniqline: no history database (use -db or set history in the config)")
		return exitUsage
	}

	h, err := report.OpenHistoryDB(path)
	if err != nil {
		fmt.Fprintf(stderr, "uniqline: %v\n", err)
		return exitError
	}
	defer h.Close()

	runs, err := h.List(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "uniqline: %v\n", err)
		return exitError
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return exitOK
	}

	for _, r := range runs {
		csv := "-"
		if r.CSVValid != nil {
			csv = "invalid"
			if *r.CSVValid {
				csv = "valid"
			}
		}
		fmt.Fprintf(stdout, "%4d  %s  %-24s  unique=%d repeated=%d total=%d  %s  csv=%s  %.3fs\n",
			r.ID, time.Unix(r.StartedAt, 0).UTC().Format(time.RFC3339), r.Input,
			r.Unique, r.Repeated, r.Total, r.Algorithm, csv, r.ElapsedSec)
	}
	return exitOK
}
