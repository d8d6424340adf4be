package config

import "github.com/joho/godotenv"

// Load pulls a .env file into the process environment if one exists.
// Missing files are fine; real deployments set env vars directly.
func Load() {
	_ = godotenv.Load(".env")
}
