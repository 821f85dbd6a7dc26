package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// TargetFromEnv returns the target URL from WEBSITE_URL, or "" when unset.
func TargetFromEnv() string {
	return strings.TrimSpace(os.Getenv(TargetEnvVar))
}
