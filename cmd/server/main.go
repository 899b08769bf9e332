package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"workpay/internal/app/server"
	"workpay/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, config.Load())
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
