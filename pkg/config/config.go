package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Database   DatabaseConfig   `yaml:"database"`
	Docstore   DocstoreConfig   `yaml:"docstore"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Downloader DownloaderConfig `yaml:"downloader"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	EmbedModel  string  `yaml:"embed_model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	TableName   string `yaml:"table_name"`
	VectorDim   int    `yaml:"vector_dim"`
	SearchLimit int    `yaml:"search_limit"`
}

type DocstoreConfig struct {
	Path string `yaml:"path"`
}

type IngestConfig struct {
	DocumentsPath   string `yaml:"documents_path"`
	ParentChunkSize int    `yaml:"parent_chunk_size"`
	ChildChunkSize  int    `yaml:"child_chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	BatchSize       int    `yaml:"batch_size"`
}

type DownloaderConfig struct {
	ManifestPath string  `yaml:"manifest_path"`
	DownloadPath string  `yaml:"download_path"`
	MaxWorkers   int     `yaml:"max_workers"`
	RateLimit    float64 `yaml:"rate_limit"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/aws-rag/config.yaml"),
			"/etc/aws-rag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.SearchLimit == 0 {
		config.Database.SearchLimit = 5
	}

	if config.Docstore.Path == "" {
		config.Docstore.Path = "data/docstore.db"
	}

	if config.Ingest.DocumentsPath == "" {
		config.Ingest.DocumentsPath = "documents"
	}
	if config.Ingest.ParentChunkSize == 0 {
		config.Ingest.ParentChunkSize = 400
	}
	if config.Ingest.ChildChunkSize == 0 {
		config.Ingest.ChildChunkSize = 100
	}
	if config.Ingest.BatchSize == 0 {
		config.Ingest.BatchSize = 500
	}

	if config.Downloader.ManifestPath == "" {
		config.Downloader.ManifestPath = "sources.json"
	}
	if config.Downloader.DownloadPath == "" {
		config.Downloader.DownloadPath = config.Ingest.DocumentsPath
	}
	if config.Downloader.MaxWorkers == 0 {
		config.Downloader.MaxWorkers = 5
	}
	if config.Downloader.RateLimit == 0 {
		config.Downloader.RateLimit = 2.0
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if docstorePath := os.Getenv("DOCSTORE_PATH"); docstorePath != "" {
		config.Docstore.Path = docstorePath
	}
	if documentsPath := os.Getenv("DOCUMENTS_PATH"); documentsPath != "" {
		config.Ingest.DocumentsPath = documentsPath
	}
}
