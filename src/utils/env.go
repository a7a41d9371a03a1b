package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// InitEnvironmentVariables loads the .env file matching goEnv from
// projectDir. In a hosted environment (ENV=production) secrets come from the
// process environment and no file is loaded.
func InitEnvironmentVariables(projectDir string, goEnv string) error {
	if os.Getenv("ENV") == "production" {
		log.Info("ENV=production: skipping .env file load")
		return nil
	}

	var envFile string
	switch goEnv {
	case "production":
		envFile = ".env.production"
	case "development", "test":
		envFile = ".env.development"
	default:
		return fmt.Errorf("InitEnvironmentVariables: unknown GO_ENV %s", goEnv)
	}

	path := filepath.Join(projectDir, envFile)
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("InitEnvironmentVariables: failed to load %s: %w", path, err)
	}

	log.Infof("loaded environment from %s", path)
	return nil
}

func GetEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("GetEnv: %s is not set", name)
	}

	return value, nil
}
