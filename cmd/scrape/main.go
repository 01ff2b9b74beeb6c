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

	app, err := bootstrap.New(ctx, cfg, "scrape")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go serveMetrics(app, cfg.MetricsPort)

	// Positional CIK args narrow the run further than the run file does; with
	// neither, the whole ticker universe is in scope.
	ciks := app.RunFile.CIKs()
	for _, arg := range os.Args[1:] {
		ciks = append(ciks, config.PadCIK(arg))
	}

	counts, err := app.DownloadUC.Run(ctx, ciks)
	if err != nil {
		log.Fatalf("download run error: %v", err)
	}
	log.Printf("download run done: validated=%d rejected=%d failed=%d",
		counts.Validated, counts.Rejected, counts.Failed)
}

func serveMetrics(app *bootstrap.App, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		app.Logger.Error("metrics server stopped", "error", err)
	}
}
