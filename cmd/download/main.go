package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/madslundt/aws-rag/pkg/config"
	"github.com/madslundt/aws-rag/pkg/downloader"
)

func main() {
	var configPath, manifestPath, downloadPath string
	var maxWorkers int
	var rateLimit float64

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&manifestPath, "manifest", "", "Path to the JSON download manifest")
	flag.StringVar(&downloadPath, "out", "", "Directory to download documents into")
	flag.IntVar(&maxWorkers, "workers", 0, "Number of parallel downloads")
	flag.Float64Var(&rateLimit, "rate-limit", 0, "Requests per second")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if manifestPath != "" {
		cfg.Downloader.ManifestPath = manifestPath
	}
	if downloadPath != "" {
		cfg.Downloader.DownloadPath = downloadPath
	}
	if maxWorkers > 0 {
		cfg.Downloader.MaxWorkers = maxWorkers
	}
	if rateLimit > 0 {
		cfg.Downloader.RateLimit = rateLimit
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	manifest, err := downloader.LoadManifest(cfg.Downloader.ManifestPath)
	if err != nil {
		return err
	}

	fmt.Println("Following documents are downloaded:")
	for _, doc := range manifest.Documents {
		plural := ""
		if len(doc.PDFs) != 1 {
			plural = "s"
		}
		fmt.Printf(" - %s\t%d document%s\n", doc.Name, len(doc.PDFs), plural)
	}
	fmt.Printf("\nQueuing up to %d downloads in parallel. Press Ctrl+C to cancel\n\n", cfg.Downloader.MaxWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(manifest.PDFCount(),
		progressbar.OptionSetDescription(color.BlueString("Downloading documents")),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	d := downloader.NewWithConfig(downloader.DownloaderConfig{
		MaxWorkers: cfg.Downloader.MaxWorkers,
		RateLimit:  cfg.Downloader.RateLimit,
		Timeout:    10 * time.Minute,
		OnProgress: func(string) { bar.Add(1) },
		OnError: func(filename string, err error) {
			color.Red("\nFailed to download %s: %v", filename, err)
		},
	})

	downloaded, err := d.Download(ctx, manifest, cfg.Downloader.DownloadPath)
	bar.Finish()

	if errors.Is(err, context.Canceled) {
		color.Yellow("\nAll downloads stopped.")
		return nil
	}
	if err != nil {
		return err
	}

	color.Green("\n✓ Documents are now available (%d downloaded)", downloaded)
	return nil
}
