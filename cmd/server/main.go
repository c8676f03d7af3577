package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authservice/internal/server"
	"github.com/dmitrijs2005/authservice/internal/server/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg := config.MustLoadConfig()

	if err := server.Main(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
