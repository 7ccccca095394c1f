package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/warrantyhub/warranty-system/pkg/tokens"
)

type Config struct {
	ServerPort  int
	DatabaseURL string

	JWT tokens.Settings

	KafkaBrokers []string
	LogLevel     string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort:  envIntDefault("SERVER_PORT", 8080),
		DatabaseURL: must(os.Getenv("DATABASE_URL"), "DATABASE_URL"),
		JWT: tokens.Settings{
			Secret:    []byte(must(os.Getenv("JWT_SECRET"), "JWT_SECRET")),
			Issuer:    envDefault("JWT_ISSUER", "warranty-system"),
			Audience:  envDefault("JWT_AUDIENCE", "warranty-system"),
			AccessTTL: time.Duration(envIntDefault("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		},
		KafkaBrokers: csv(os.Getenv("KAFKA_BROKERS")),
		LogLevel:     envDefault("LOG_LEVEL", "info"),
	}
	return cfg
}

func must(v, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
