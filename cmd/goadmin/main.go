// Command goadmin drives the admin console session from a terminal.
//
// Usage:
//
//	goadmin [-config file] <command> [flags]
//
// Commands: login, logout, whoami, refresh, passwd, open <path>, serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/transport"
	"go.uber.org/zap"
)

// errUsage makes run exit with status 2.
var errUsage = errors.New("usage")

type app struct {
	engine *goAdmin.Engine
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "goadmin:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("goadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("GOADMIN_CONFIG"), "YAML config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: goadmin [-config file] <login|logout|whoami|refresh|passwd|open|serve> [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}

	cfg, err := loadConfig(*configPath, os.LookupEnv)
	if err != nil {
		return err
	}

	logger, err := goAdmin.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine, err := goAdmin.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithNotifier(transport.NewWriterNotifier(stderr)).
		Build()
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	a := &app{
		engine: engine,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	return cmd(ctx, a, fs.Args()[1:])
}

// loadConfig reads path when given. Without a config file and without an
// explicit store backend, credentials persist in the user's config
// directory so that separate invocations share a session.
func loadConfig(path string, lookup func(string) (string, bool)) (goAdmin.Config, error) {
	if path != "" {
		return goAdmin.LoadConfig(path)
	}

	cfg, err := goAdmin.ConfigFromEnv()
	if err != nil {
		return goAdmin.Config{}, err
	}
	if v, ok := lookup("GOADMIN_STORE_BACKEND"); ok && v != "" {
		return cfg, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	cfg.Store.Backend = goAdmin.StoreFile
	cfg.Store.Path = filepath.Join(dir, "goadmin", "credentials.json")
	return cfg, nil
}
