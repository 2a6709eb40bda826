package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/duckauth/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cli.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "duckauth: %v\n", err)
		return 1
	}
	defer func() { _ = app.Close() }()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if cli.IsUsageError(err) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "duckauth: %v\n", err)
		return 1
	}
	return 0
}
