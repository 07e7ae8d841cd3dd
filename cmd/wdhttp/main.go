package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/webdriver-transport/internal/app"
	"github.com/samvad-hq/webdriver-transport/internal/config"
	"github.com/samvad-hq/webdriver-transport/internal/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wdhttp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newApp(os.Stdout).RunContext(ctx, args)
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "wdhttp",
		Usage: "issue JSON requests against a WebDriver endpoint",
		Commands: []*cli.Command{
			execCommand(),
			historyCommand(),
		},
		Writer:          out,
		HideHelpCommand: true,
	}
}

// openRunner loads config, initializes logging and builds the runner. The
// returned closer must be called once the command is done.
func openRunner(ctx context.Context) (*app.Runner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		_ = logger.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := runner.Close(); err != nil {
			logger.ErrorObj("runner close failed", "error", err.Error())
		}
		_ = logger.Close()
	}
	return runner, closer, nil
}
