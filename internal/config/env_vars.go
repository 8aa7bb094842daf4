package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "DATA_FOLDER"
	baseURLVar    = "BASE_URL"
	logLevelVar   = "LOG_LEVEL"
	adminEmailVar = "ADMIN_EMAIL"
	envVar        = "ENV"
)

// source resolves a key from the environment first and the config file second.
type source struct {
	file   map[string]string
	lookup func(string) (string, bool)
}

func (s *source) get(key, defaultValue string) string {
	if s == nil {
		return defaultValue
	}
	if v, ok := s.lookup(key); ok && v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

type EnvVars struct {
	src *source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "5000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "ConnectSpace")
}

func (e EnvVars) GetDataFolder() string {
	return e.src.get(folderEnvVar, "./data")
}

// GetBaseURL returns the public base URL of the API (e.g., "https://api.connectspace.app").
// Stored file URLs and the OIDC redirect URI are built from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.src.get(baseURLVar, "http://localhost:5000"), "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.src.get(logLevelVar, "info")
}

// GetAdminEmail is the account ensured at startup, empty disables the bootstrap
func (e EnvVars) GetAdminEmail() string {
	return e.src.get(adminEmailVar, "")
}

func (e EnvVars) GetEnv() string {
	return e.src.get(envVar, "DEV")
}

func (e EnvVars) dataPath(elem ...string) string {
	return filepath.Join(append([]string{e.GetDataFolder()}, elem...)...)
}

// ParseDuration accepts Go durations ("15m", "1h30m") plus a day suffix ("7d").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
