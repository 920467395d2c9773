package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/XueTang422/calendar-mcp/internal/google"
)

// Environment variable names.
const (
	EnvCredentialsFile = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvClientID        = "GOOGLE_CLIENT_ID"
	EnvClientSecret    = "GOOGLE_CLIENT_SECRET"
	EnvRefreshToken    = "GOOGLE_REFRESH_TOKEN"
	EnvPort            = "PORT"
	EnvNodeEnv         = "NODE_ENV"
	EnvAppEnv          = "APP_ENV"
)

// DefaultPort is used when PORT is unset.
const DefaultPort = 8080

// Config holds the process configuration.
type Config struct {
	// GoogleCredentialsPath points at a service account key file.
	GoogleCredentialsPath string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	// Port is the HTTP listen port for the streamable-http transport.
	Port int

	// Production is set when NODE_ENV or APP_ENV equals "production".
	Production bool
}

// Load reads the given dotenv files (".env" when none are given) into the
// process environment and then builds a Config from it. Missing dotenv files
// are not an error. Variables already present in the environment win over
// values from the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv to look up variables.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		GoogleCredentialsPath: strings.TrimSpace(getenv(EnvCredentialsFile)),
		GoogleClientID:        strings.TrimSpace(getenv(EnvClientID)),
		GoogleClientSecret:    strings.TrimSpace(getenv(EnvClientSecret)),
		GoogleRefreshToken:    strings.TrimSpace(getenv(EnvRefreshToken)),
		Port:                  DefaultPort,
	}

	if raw := strings.TrimSpace(getenv(EnvPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a number between 1 and 65535", EnvPort, raw)
		}
		cfg.Port = port
	}

	env := getenv(EnvNodeEnv)
	if env == "" {
		env = getenv(EnvAppEnv)
	}
	cfg.Production = strings.EqualFold(env, "production")

	return cfg, nil
}

// Auth returns the credential settings for the Google Calendar backend.
func (c Config) Auth() google.AuthConfig {
	return google.AuthConfig{
		CredentialsFile: c.GoogleCredentialsPath,
		ClientID:        c.GoogleClientID,
		ClientSecret:    c.GoogleClientSecret,
		RefreshToken:    c.GoogleRefreshToken,
	}
}
