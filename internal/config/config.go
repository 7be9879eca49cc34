package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Executor ExecutorConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	DataDir        string
	DocumentsDir   string
	GroundTruthDir string
	BenchmarkFile  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	// JWTSecret enables bearer-token auth on the API when non-empty.
	JWTSecret string
}

type LLMConfig struct {
	OpenAIKey         string
	AnthropicKey      string
	OpenRouterKey     string
	OpenRouterBaseURL string
}

type ExecutorConfig struct {
	// Timeout bounds one extraction call; on expiry the run fails.
	Timeout     time.Duration
	Concurrency int
}

func Load() (*Config, error) {
	// Optional .env for local development.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	timeoutSec, err := getEnvInt("EXECUTOR_TIMEOUT_SECONDS", 600)
	if err != nil {
		return nil, fmt.Errorf("invalid EXECUTOR_TIMEOUT_SECONDS: %w", err)
	}

	concurrency, err := getEnvInt("EXECUTOR_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid EXECUTOR_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Storage: StorageConfig{
			DataDir:        getEnv("DATA_DIR", "data"),
			DocumentsDir:   getEnv("DOCUMENTS_DIR", "documents"),
			GroundTruthDir: getEnv("GROUND_TRUTH_DIR", "ground_truth"),
			BenchmarkFile:  getEnv("BENCHMARK_FILE", "data/benchmark_results.json"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:      getEnv("ANTHROPIC_API_KEY", ""),
			OpenRouterKey:     getEnv("OPENROUTER_API_KEY", ""),
			OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		},
		Executor: ExecutorConfig{
			Timeout:     time.Duration(timeoutSec) * time.Second,
			Concurrency: concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
