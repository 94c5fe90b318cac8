package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/madslundt/aws-rag/pkg/config"
	"github.com/madslundt/aws-rag/pkg/ingest"
	"github.com/madslundt/aws-rag/pkg/llm"
	"github.com/madslundt/aws-rag/pkg/loader"
	"github.com/madslundt/aws-rag/pkg/store"
)

func main() {
	var configPath, docsPath, dbURL, docstorePath string
	var reset bool
	var parentChunkSize, childChunkSize, batchSize int

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&docsPath, "docs", "", "Root directory of PDF documents")
	flag.StringVar(&dbURL, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&docstorePath, "docstore", "", "Path to the SQLite docstore")
	flag.BoolVar(&reset, "reset", false, "Clear both stores before ingesting (irreversible)")
	flag.IntVar(&parentChunkSize, "parent-chunk-size", 0, "Size of parent chunks")
	flag.IntVar(&childChunkSize, "child-chunk-size", 0, "Size of child chunks (0 disables child splitting)")
	flag.IntVar(&batchSize, "batch-size", 0, "Batch size for vector index writes")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Command line flags win over the config file.
	if docsPath != "" {
		cfg.Ingest.DocumentsPath = docsPath
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if docstorePath != "" {
		cfg.Docstore.Path = docstorePath
	}
	if parentChunkSize > 0 {
		cfg.Ingest.ParentChunkSize = parentChunkSize
	}
	if childChunkSize > 0 {
		cfg.Ingest.ChildChunkSize = childChunkSize
	}
	if batchSize > 0 {
		cfg.Ingest.BatchSize = batchSize
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			color.Red("config: %v", err)
		}
		os.Exit(1)
	}

	if err := run(cfg, reset); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, reset bool) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbedModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	index, err := store.NewWithConfig(store.VectorIndexConfig{
		ConnString:  cfg.Database.URL,
		TableName:   cfg.Database.TableName,
		VectorDim:   cfg.Database.VectorDim,
		SearchLimit: cfg.Database.SearchLimit,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize vector index: %v", err)
	}
	defer index.Close()

	docstore, err := store.NewSQLiteStore(cfg.Docstore.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize docstore: %v", err)
	}
	defer docstore.Close()

	engine := ingest.NewWithConfig(
		loader.NewPDFLoader(),
		index,
		docstore.DocumentStore(),
		docstore.DigestStore(),
		ingest.EngineConfig{
			ParentChunkSize: cfg.Ingest.ParentChunkSize,
			ChildChunkSize:  cfg.Ingest.ChildChunkSize,
			ChunkOverlap:    cfg.Ingest.ChunkOverlap,
			BatchSize:       cfg.Ingest.BatchSize,
			OnFile: func(path string, status ingest.FileStatus) {
				switch status {
				case ingest.FileSkipped:
					fmt.Printf("Skipping %s because it is already up to date\n", path)
				case ingest.FileIngested:
					color.Green("✓ Ingested %s", path)
				}
			},
			OnError: func(path string, err error) {
				color.Red("Failed to ingest %s: %v", path, err)
			},
		})

	if reset {
		color.Yellow("✨ Clearing database")
	}

	report, err := engine.Ingest(context.Background(), cfg.Ingest.DocumentsPath, reset)
	if err != nil {
		return err
	}

	color.Green("\n✓ Done: %d updated, %d skipped, %d failed", report.FilesUpdated, report.FilesSkipped, report.FilesFailed)
	color.Green("  chunks inserted: %d, chunks updated: %d", report.ChunksInserted, report.ChunksUpdated)
	return nil
}
