// Command registry manages the patient registry: adding and listing
// patients, statistics, CSV import and export, and the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/covidtrack/registry/internal/domain/shared"
	"github.com/covidtrack/registry/internal/infrastructure/config"
	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var version = "dev"

// errUsage marks command line mistakes; run prints usage for them
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config.toml (default: ./config.toml, /etc/registry/config.toml)")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 2
	}
	command, cmdArgs := fs.Arg(0), fs.Args()[1:]

	cmd, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		printUsage(stderr)
		return 2
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		ErrorOutput: cfg.Log.ErrorOutput,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	providers, log, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize telemetry: %v\n", err)
		return 1
	}
	defer providers.shutdown(log)

	log.Debug("command started",
		zap.String("command", command),
		zap.String("storage", cfg.Storage.Driver),
	)

	env := &commandEnv{ctx: ctx, cfg: cfg, log: log, tracer: providers.tracer, stdout: stdout, stderr: stderr}
	if err := cmd(env, cmdArgs); err != nil {
		return reportError(stderr, log, command, err)
	}
	return 0
}

func reportError(stderr io.Writer, log *zap.Logger, command string, err error) int {
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "%v\n\n", err)
		printUsage(stderr)
		return 2
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		log.Info("command rejected", zap.String("command", command), zap.Error(err))
		if de.Field != "" {
			fmt.Fprintf(stderr, "rejected: %s: %s\n", de.Field, de.Message)
		} else {
			fmt.Fprintf(stderr, "rejected: %s\n", de.Message)
		}
		return 1
	}

	log.Error("command failed", zap.String("command", command), zap.Error(err))
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: registry [--config PATH] <command> [arguments]

Commands:
  create FIRST LAST --birth-date DATE --phone PHONE --document-type TYPE --document-id ID
                        validate and store a patient
  show [N]              print the first N patients (default 10)
  count                 print the number of stored patients
  stats                 print the status chart
  import FILE.csv       add the valid rows of a CSV file
  export FILE.csv [--s3-key KEY]
                        write all patients as CSV, optionally uploading to object storage
  serve                 run the HTTP API
`)
}
