package env

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok && val != "" {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file it finds. Deployments that inject
// configuration through the process environment run without one.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/suede to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	Env = map[string]string{}
	log.Printf("No .env file found, using process environment only")
}

// Missing returns the keys from the given list that have no value.
func Missing(keys ...string) []string {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(GetEnv(key, "")) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
