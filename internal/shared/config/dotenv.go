package config

import "github.com/joho/godotenv"

// loadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left alone; a missing file is not an error.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}
