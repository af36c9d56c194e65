package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	CatalogPath string
	ResultsDir  string
	LogDir      string
	LLM         LLMConfig
	Results     ResultsStoreConfig
}

type LLMConfig struct {
	Model    string
	UseFake  bool
	CacheDir string
}

type ResultsStoreConfig struct {
	PostgresDSN string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	catalogPath := flag.String("catalog", "", "question catalog document (json or yaml); empty uses the built-in battery")
	resultsDir := flag.String("results-dir", "data/results", "directory for completed interview results")
	logDir := flag.String("log-dir", "", "directory for per-session interview logs")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}
	if v := strings.TrimSpace(os.Getenv("CATALOG_PATH")); v != "" {
		*catalogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("RESULTS_DIR")); v != "" {
		*resultsDir = v
	}
	if v := strings.TrimSpace(os.Getenv("INTERVIEW_LOG_DIR")); v != "" {
		*logDir = v
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		CatalogPath: *catalogPath,
		ResultsDir:  *resultsDir,
		LogDir:      *logDir,
		LLM:         loadLLMConfig(),
		Results:     loadResultsStoreConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if model == "" {
		model = "gemini-2.0-flash"
	}
	useFake, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("USE_FAKE_LLM")))
	return LLMConfig{
		Model:    model,
		UseFake:  useFake,
		CacheDir: strings.TrimSpace(os.Getenv("LLM_CACHE_DIR")),
	}
}

func loadResultsStoreConfig(env string) ResultsStoreConfig {
	return ResultsStoreConfig{
		PostgresDSN: strings.TrimSpace(os.Getenv("RESULTS_PG_DSN")),
		S3Endpoint:  strings.TrimSpace(os.Getenv("RESULTS_S3_ENDPOINT")),
		S3Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_REGION")), "us-east-1"),
		S3AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		S3SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		S3Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_BUCKET")), "isoscreen-results"),
		S3UseSSL:    resolveS3UseSSL(env),
	}
}

func resolveS3UseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("RESULTS_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
