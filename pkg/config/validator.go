package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Ingest.ParentChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.parent_chunk_size",
			Message: "parent_chunk_size must be positive",
		})
	}

	if c.Ingest.ChildChunkSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "ingest.child_chunk_size",
			Message: "child_chunk_size cannot be negative",
		})
	}

	if c.Ingest.ChildChunkSize > 0 && c.Ingest.ChildChunkSize >= c.Ingest.ParentChunkSize {
		errors = append(errors, ValidationError{
			Field:   "ingest.child_chunk_size",
			Message: "child_chunk_size must be smaller than parent_chunk_size",
		})
	}

	if c.Ingest.ChunkOverlap < 0 || (c.Ingest.ParentChunkSize > 0 && c.Ingest.ChunkOverlap >= c.Ingest.ParentChunkSize) {
		errors = append(errors, ValidationError{
			Field:   "ingest.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than parent_chunk_size",
		})
	}

	if c.Ingest.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Downloader.MaxWorkers < 1 {
		errors = append(errors, ValidationError{
			Field:   "downloader.max_workers",
			Message: "max_workers must be positive",
		})
	}

	if c.Downloader.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "downloader.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}
