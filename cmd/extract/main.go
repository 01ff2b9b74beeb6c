package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaneholloman/edgar/internal/bootstrap"
	"github.com/shaneholloman/edgar/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "extract")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			app.Logger.Error("metrics server stopped", "error", err)
		}
	}()

	counts, err := app.ExtractUC.Run(ctx)
	if err != nil {
		log.Fatalf("extraction run error: %v", err)
	}
	log.Printf("extraction run done: succeeded=%d retryable=%d permanent=%d",
		counts.Succeeded, counts.FailedRetryable, counts.FailedPermanent)
}
