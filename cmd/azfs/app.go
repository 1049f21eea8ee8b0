package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	azure "github.com/jmgilman/go/fs/azure"
	"github.com/jmgilman/go/fs/azure/internal/config"
	"github.com/jmgilman/go/fs/azure/internal/logging"
	"github.com/jmgilman/go/fs/azure/store"
	"github.com/spf13/pflag"
)

type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	// service replaces the store selected by the configuration.
	service store.Service
}

type globalFlags struct {
	config     string
	account    string
	backend    string
	accountKey string
	logLevel   string
	logFile    string
	timeout    time.Duration
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, fsys *azure.FileSystem, args []string) error
}

var commands = map[string]command{
	"cat":    {summary: "write a blob (or a byte range of it) to stdout", run: runCat},
	"stat":   {summary: "print a blob's size, modification time and metadata", run: runStat},
	"ranges": {summary: "print several byte ranges of a blob, fetched concurrently", run: runRanges},
}

func (a *app) run(ctx context.Context, args []string) error {
	var g globalFlags

	flagSet := pflag.NewFlagSet("azfs", pflag.ContinueOnError)
	flagSet.SetOutput(a.stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&g.config, "config", "c", "", "path to a YAML or CUE config file")
	flagSet.StringVar(&g.account, "account", "", "storage account name")
	flagSet.StringVar(&g.backend, "backend", "", "azure or azurite")
	flagSet.StringVar(&g.accountKey, "account-key", "", "storage account key (default: $"+config.AccountKeyEnv+")")
	flagSet.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&g.logFile, "log-file", "", "also write logs to this file, with rotation")
	flagSet.DurationVar(&g.timeout, "timeout", 0, "per-request timeout")
	flagSet.Usage = func() { a.usage(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		a.usage(flagSet)
		return fmt.Errorf("no command given")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	fsys, closer, err := a.openFileSystem(ctx, g)
	if err != nil {
		return err
	}
	defer func() {
		_ = closer.Close()
	}()

	return cmd.run(ctx, a, fsys, rest[1:])
}

func (a *app) openFileSystem(ctx context.Context, g globalFlags) (*azure.FileSystem, io.Closer, error) {
	cfg := &config.File{}
	if g.config != "" {
		var err error
		if cfg, err = config.Load(g.config); err != nil {
			return nil, nil, err
		}
	}

	if g.account != "" {
		cfg.Account = g.account
	}
	if g.backend != "" {
		cfg.Backend = g.backend
	}
	if g.accountKey != "" {
		cfg.Credential.AccountKey = g.accountKey
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFile != "" {
		cfg.Logging.File = g.logFile
	}
	cfg.ApplyEnv(a.getenv)

	logger, closer, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		return nil, nil, err
	}

	opts, err := cfg.Options()
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	ioCtx, err := cfg.IOContext()
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	ioCtx.Context = ctx
	if g.timeout > 0 {
		ioCtx.RequestTimeout = g.timeout
	}

	svc := a.service
	if svc == nil {
		if svc, err = cfg.Service(); err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
	}

	fsOpts := []azure.Option{azure.WithIOContext(ioCtx), azure.WithLogger(logger)}
	if svc != nil {
		fsOpts = append(fsOpts, azure.WithService(svc))
	}

	fsys, err := azure.New(opts, fsOpts...)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return fsys, closer, nil
}

func (a *app) usage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(a.stderr, "Usage: azfs [global flags] <command> [command flags] <path>\n\nCommands:\n")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.stderr, "  %-8s %s\n", name, commands[name].summary)
	}

	fmt.Fprintf(a.stderr, "\nGlobal flags:\n%s", flagSet.FlagUsages())
}

// singlePath returns the only positional argument.
func singlePath(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s: expected exactly one path, got %s", cmd, strings.Join(args, " "))
	}
	return args[0], nil
}
