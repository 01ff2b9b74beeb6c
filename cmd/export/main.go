package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shaneholloman/edgar/internal/bootstrap"
	"github.com/shaneholloman/edgar/internal/config"
	"github.com/shaneholloman/edgar/internal/export"
)

func main() {
	format := flag.String("format", "csv", "output format: csv or xlsx")
	out := flag.String("out", "executives.csv", "output file path")
	flag.Parse()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "export")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	var n int
	switch strings.ToLower(*format) {
	case "csv":
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create output file: %v", err)
		}
		n, err = export.WriteCSV(ctx, app.Exporter, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("csv export error: %v", err)
		}
	case "xlsx":
		n, err = export.WriteXLSX(ctx, app.Exporter, *out)
		if err != nil {
			log.Fatalf("xlsx export error: %v", err)
		}
	default:
		log.Fatalf("unknown format %q (want csv or xlsx)", *format)
	}

	log.Printf("wrote %d executives to %s", n, *out)
}
