package main

import (
	"os"

	"github.com/joho/godotenv"
)

func loadEnvFiles() {
	// godotenv never overrides variables already set by the runtime.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "db/migrations"
}
