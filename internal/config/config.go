package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DbConfig struct {
	// Host left empty disables the submission audit store.
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type EngineConfig struct {
	Workers       int
	QueueCapacity int
	StagingDir    string
	// AllowInsecureFallback gates the in-process executor. It exists
	// for local development only; deployed environments must leave it
	// off so an unreachable isolation runtime fails loudly.
	AllowInsecureFallback bool
}

type Config struct {
	Server ServerConfig
	Db     DbConfig
	Engine EngineConfig
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	conf := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 120),
		},
		Db: DbConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "crucible"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "crucible"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Engine: EngineConfig{
			Workers:               getEnvInt("ENGINE_WORKERS", 5),
			QueueCapacity:         getEnvInt("ENGINE_QUEUE_CAPACITY", 100),
			StagingDir:            getEnv("ENGINE_STAGING_DIR", ""),
			AllowInsecureFallback: getEnvBool("ENGINE_ALLOW_INSECURE_FALLBACK", false),
		},
	}
	return conf, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
