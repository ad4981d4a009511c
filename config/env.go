package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvRPCURL          = "RPC_URL"
	EnvPrivateKey      = "BOT_PRIVATE_KEY"
	EnvContractAddress = "CONTRACT_ADDRESS"
	EnvLogLevel        = "LOG_LEVEL" // debug, info, warn, error
)

const defaultEnvFile = ".env"

// LoadEnv loads environment variables from an env file. Variables already
// set in the process environment win. A missing default .env is not an
// error; a missing explicitly named file is.
func LoadEnv(file string) error {
	if file == "" {
		err := godotenv.Load(defaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
		}
		return nil
	}

	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return value, nil
}
