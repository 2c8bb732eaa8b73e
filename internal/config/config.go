package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/sentinel.db"

	// SeedFile is an optional YAML fixture of users and gates loaded at
	// startup in dev environments.
	SeedFile string
}

func FromEnv() Config {
	addr := getenvDefault("SENTINEL_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("SENTINEL_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   getenvDefault("SENTINEL_DB_PATH", "./data/sentinel.db"),
		SeedFile: strings.TrimSpace(os.Getenv("SENTINEL_SEED_FILE")),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
