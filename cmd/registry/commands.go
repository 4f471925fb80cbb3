package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/infrastructure/config"
	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/covidtrack/registry/internal/infrastructure/storage"
	"github.com/covidtrack/registry/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultShowCount = 10

// commandEnv is what every command receives
type commandEnv struct {
	ctx    context.Context
	cfg    *config.Config
	log    *zap.Logger
	tracer *telemetry.TracerProvider // nil or disabled when telemetry is off
	stdout io.Writer
	stderr io.Writer
}

// commands by name. Commands that write may start from a missing csv file;
// the read-only ones report it.
var commands = map[string]func(env *commandEnv, args []string) error{
	"create": withApp(true, runCreate),
	"show":   withApp(false, runShow),
	"count":  withApp(false, runCount),
	"stats":  withApp(false, runStats),
	"import": withApp(true, runImport),
	"export": withApp(false, runExport),
	"serve":  withApp(true, runServe),
}

func withApp(createStore bool, fn func(env *commandEnv, a *app, args []string) error) func(*commandEnv, []string) error {
	return func(env *commandEnv, args []string) error {
		a, err := newApp(env, createStore)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				env.log.Warn("failed to close storage", zap.Error(err))
			}
		}()
		return fn(env, a, args)
	}
}

// parseInterleaved parses flags that may appear before, between or after
// positional arguments, returning the positional ones.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runCreate(env *commandEnv, a *app, args []string) error {
	fs := newFlagSet("create")
	birthDate := fs.String("birth-date", "", "birth date")
	phone := fs.String("phone", "", "phone number")
	docType := fs.String("document-type", "", "document type, free text")
	docID := fs.String("document-id", "", "document number")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("%w: create needs FIRST and LAST name", errUsage)
	}

	p, err := a.collection.Add(env.ctx, patient.RawFields{
		FirstName:    positional[0],
		LastName:     positional[1],
		BirthDate:    *birthDate,
		Phone:        *phone,
		DocumentType: *docType,
		DocumentID:   *docID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, p.String())
	return nil
}

func runShow(env *commandEnv, a *app, args []string) error {
	n := defaultShowCount
	switch len(args) {
	case 0:
	case 1:
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("%w: show takes a non-negative count, got %q", errUsage, args[0])
		}
		n = v
	default:
		return fmt.Errorf("%w: show takes at most one argument", errUsage)
	}

	for p, err := range a.collection.Limit(env.ctx, n) {
		if err != nil {
			return err
		}
		fmt.Fprintln(env.stdout, p.String())
	}
	return nil
}

func runCount(env *commandEnv, a *app, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: count takes no arguments", errUsage)
	}
	n, err := a.collection.Count(env.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, n)
	return nil
}

func runStats(env *commandEnv, a *app, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: stats takes no arguments", errUsage)
	}
	fmt.Fprint(env.stdout, a.collection.Statistics().Chart())
	return nil
}

func runImport(env *commandEnv, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import needs FILE.csv", errUsage)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := a.collection.Import(env.ctx, f)
	if result != nil {
		fmt.Fprintf(env.stdout, "rows: %d, imported: %d, rejected: %d\n",
			result.TotalRows, result.ImportedRows, result.ErrorRows)
		for _, rowErr := range result.Errors {
			fmt.Fprintln(env.stdout, "  "+rowErr.Error())
		}
		if result.IsTruncated {
			fmt.Fprintf(env.stdout, "  ... %d errors in total\n", result.TotalErrors)
		}
	}
	return err
}

func runExport(env *commandEnv, a *app, args []string) error {
	fs := newFlagSet("export")
	s3Key := fs.String("s3-key", "", "also upload the snapshot under this object key")
	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: export needs FILE.csv", errUsage)
	}

	f, err := os.Create(positional[0])
	if err != nil {
		return err
	}
	if err := a.collection.Export(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "exported %d patients to %s\n", a.collection.Len(), positional[0])

	if *s3Key == "" {
		return nil
	}
	if !env.cfg.ObjectStorage.Enabled {
		return fmt.Errorf("%w: --s3-key needs object_storage.enabled", errUsage)
	}
	store, err := storage.NewS3ObjectStorage(&env.cfg.ObjectStorage,
		storage.WithLogger(logger.Named(env.log, "storage")))
	if err != nil {
		return err
	}
	return publish(env, a, store, *s3Key)
}

// bucketEnsurer is implemented by stores that can create their bucket
type bucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

func publish(env *commandEnv, a *app, store storage.ObjectStorage, key string) error {
	if b, ok := store.(bucketEnsurer); ok {
		if err := b.EnsureBucket(env.ctx); err != nil {
			return err
		}
	}
	if err := a.collection.Publish(env.ctx, store, key); err != nil {
		return err
	}
	url, expiresAt, err := store.DownloadURL(env.ctx, key, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "uploaded %s (link valid until %s)\n%s\n",
		key, expiresAt.Format("2006-01-02 15:04"), url)
	return nil
}
