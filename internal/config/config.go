package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	UploadConfig
	StoreConfig
	OIDCConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetLogLevel() string
	GetAdminEmail() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Upload
	Store
	OIDC
}

// New builds the configuration from the process environment. When CONFIG_FILE
// names a YAML file its keys act as defaults beneath the environment.
func New() (Config, error) {
	file := map[string]string{}
	if path := os.Getenv(configFileVar); path != "" {
		values, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		file = values
	}
	return newMainConfig(&source{file: file, lookup: os.LookupEnv}), nil
}

// NewFromMap builds a configuration that reads only from values.
// Used by tests and tooling that must not depend on the environment.
func NewFromMap(values map[string]string) Config {
	return newMainConfig(&source{
		file: map[string]string{},
		lookup: func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		},
	})
}

func newMainConfig(src *source) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{src: src},
		Cors:    Cors{src: src},
		Token:   Token{src: src},
		Upload:  Upload{src: src},
		Store:   Store{src: src},
		OIDC:    OIDC{src: src},
	}
}

// Validate reports configuration that must stop the process from starting.
func (c mainConfig) Validate() error {
	if c.GetJWTSecret() == "" {
		return fmt.Errorf("%s is required", jwtSecretVar)
	}
	if _, err := c.Token.accessTokenExpiry(); err != nil {
		return err
	}
	if _, err := c.Token.refreshTokenExpiry(); err != nil {
		return err
	}
	switch c.GetStoreDriver() {
	case StoreDriverMemory, StoreDriverSQLite, StoreDriverPostgres, StoreDriverMongo:
	default:
		return fmt.Errorf("unsupported %s %q", storeDriverVar, c.GetStoreDriver())
	}
	if c.GetOIDCEnabled() && c.GetOIDCClientID() == "" {
		return fmt.Errorf("%s is required when %s is set", oidcClientIDVar, oidcIssuerVar)
	}
	return nil
}

func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}
