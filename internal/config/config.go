// Package config loads service configuration from the environment.
// A .env file in the working directory is honored for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the receipt auditor services.
type Config struct {
	// Port is the HTTP listen port for the API server.
	Port string

	// GCSBucket is the bucket receipt images are uploaded to.
	// Empty disables image uploads.
	GCSBucket string

	// QdrantAddr is the gRPC address of the Qdrant vector store.
	// Empty disables semantic search.
	QdrantAddr string

	// OpenAIAPIKey authorizes embedding requests.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the OpenAI endpoint, for proxies and
	// compatible local servers. Empty uses the default endpoint.
	OpenAIBaseURL string

	// ExtractionModel is the Gemini model used for receipt extraction
	// and chat answers. Empty selects the package default.
	ExtractionModel string
}

// Load reads configuration from the environment, after loading a .env file
// if one exists. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getenv("PORT", "8080"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		QdrantAddr:      os.Getenv("QDRANT_ADDR"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		ExtractionModel: os.Getenv("EXTRACTION_MODEL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
