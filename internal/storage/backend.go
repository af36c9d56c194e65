package storage

import (
	"log"
	"strings"
)

// BackendConfig selects and parameterizes the result store backend.
// Postgres wins when a DSN is set, then S3 when an endpoint is set, then
// the file store.
type BackendConfig struct {
	PostgresDSN string
	S3          S3Config
	ResultsDir  string
}

// New picks the backend. Init failures fall back to the file store with a
// log line rather than refusing to start.
func New(cfg BackendConfig) Store {
	if dsn := strings.TrimSpace(cfg.PostgresDSN); dsn != "" {
		s, err := NewPostgresStore(dsn)
		if err == nil {
			return s
		}
		log.Printf("storage: postgres init failed, falling back to files: %v", err)
	}
	if strings.TrimSpace(cfg.S3.Endpoint) != "" {
		s, err := NewS3Store(cfg.S3)
		if err == nil {
			return s
		}
		log.Printf("storage: s3 init failed, falling back to files: %v", err)
	}
	fs, err := NewFileStore(cfg.ResultsDir)
	if err != nil {
		log.Printf("storage: file store init failed, using memory: %v", err)
		return NewMemoryStore()
	}
	return fs
}
