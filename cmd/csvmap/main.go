// Command csvmap maps a CSV file onto a registered schema, or onto a JSON or
// YAML mapping file, and reports what could and could not be mapped.
//
//	csvmap -schema people people.csv
//	csvmap -mapping orders.yaml -json -failed failed.csv orders.csv
//	csvmap -list
//
// The summary goes to stderr; -json and -dump write the mapped items to
// stdout. Configuration is read from the environment (and .env) like the
// server; flags override the parser settings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvmap/internal/config"
	"github.com/JonMunkholm/csvmap/internal/core"
	_ "github.com/JonMunkholm/csvmap/internal/core/tables" // Register all schemas
	"github.com/JonMunkholm/csvmap/internal/logging"
	"github.com/JonMunkholm/csvmap/internal/schema"
)

// errInvalidRows is returned in strict mode when any row failed to map.
var errInvalidRows = errors.New("file has invalid rows")

const exitUsage = 2

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, config.Load)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(exitUsage)
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	default:
		fmt.Fprintln(os.Stderr, "csvmap:", core.FormatUserError(err))
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: csvmap (-schema KEY | -mapping FILE) [flags] FILE|-")

type options struct {
	schemaKey   string
	mappingPath string
	failedPath  string
	jsonLines   bool
	dump        bool
	list        bool
	strict      bool
	parallelism int
	unordered   bool
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("csvmap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.schemaKey, "schema", "", "registered schema key")
	fs.StringVar(&o.mappingPath, "mapping", "", "JSON or YAML mapping file")
	fs.StringVar(&o.failedPath, "failed", "", "write failed rows as CSV to this file")
	fs.BoolVar(&o.jsonLines, "json", false, "write mapped items to stdout as JSON lines")
	fs.BoolVar(&o.dump, "dump", false, "dump mapped items to stdout")
	fs.BoolVar(&o.list, "list", false, "list registered schemas and exit")
	fs.BoolVar(&o.strict, "strict", false, "exit non-zero when any row is invalid")
	fs.IntVar(&o.parallelism, "parallel", -1, "worker count (default from CSV_PARALLELISM)")
	fs.BoolVar(&o.unordered, "unordered", false, "deliver items as workers finish")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	return o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, load func() (*config.Config, error)) error {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := load()
	if err != nil {
		return err
	}
	if opts.parallelism >= 0 {
		cfg.Parser.Parallelism = opts.parallelism
	}
	if opts.unordered {
		cfg.Parser.Unordered = true
	}
	// A local file is not an upload: keep everything, no size cap.
	cfg.Upload.MaxFileSize = 0
	cfg.Upload.MaxReportItems = 0
	cfg.Upload.MaxFailedRows = 0

	logger := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)
	ctx = logging.WithLogger(ctx, logger)

	// Parsing never touches the database.
	service := core.NewService(cfg, nil)

	if opts.list {
		return listSchemas(stdout, service)
	}
	if len(rest) != 1 || (opts.schemaKey == "") == (opts.mappingPath == "") {
		return errUsage
	}

	in, name, err := openInput(rest[0], stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	var report *core.Report
	if opts.mappingPath != "" {
		spec, err := schema.Load(opts.mappingPath)
		if err != nil {
			return err
		}
		report, err = service.ParseWithSpec(ctx, spec, name, in)
		if err != nil {
			return err
		}
	} else {
		report, err = service.Parse(ctx, opts.schemaKey, name, in)
		if err != nil {
			return err
		}
	}

	if opts.jsonLines {
		enc := json.NewEncoder(stdout)
		for _, item := range report.Items {
			if err := enc.Encode(item); err != nil {
				return fmt.Errorf("write item: %w", err)
			}
		}
	}
	if opts.dump {
		spew.Fdump(stdout, report.Items)
	}
	if opts.failedPath != "" && len(report.FailedRows) > 0 {
		if err := writeFailed(opts.failedPath, report); err != nil {
			return err
		}
	}

	printSummary(stderr, report)
	if opts.strict && report.Invalid > 0 {
		return errInvalidRows
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}
	return f, filepath.Base(path), nil
}

func writeFailed(path string, report *core.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create failed rows file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return core.WriteFailedRowsCSV(f, report)
}

func listSchemas(w io.Writer, service *core.Service) error {
	for _, info := range service.ListSchemas() {
		if _, err := fmt.Fprintf(w, "%-24s %-8s %s\n", info.Key, info.Group, info.Label); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, r *core.Report) {
	fmt.Fprintf(w, "%s: %d rows, %d valid, %d invalid, %d skipped (%d bytes in %s)\n",
		r.FileName, r.TotalRows, r.Valid, r.Invalid, r.Skipped, r.BytesRead, r.Duration.Round(time.Millisecond))
	for _, row := range r.FailedRows {
		fmt.Fprintf(w, "  line %d: %s\n", row.LineNumber, row.Reason)
	}
}
