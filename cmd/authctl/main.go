package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authservice/internal/client/cli"
	"github.com/dmitrijs2005/authservice/internal/client/client"
	"github.com/dmitrijs2005/authservice/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	api := client.New(cfg.ServerURL, cfg.Timeout, client.NewFileStore(cfg.SessionFile))
	app := cli.NewApp(api, os.Stdin, os.Stdout)

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
