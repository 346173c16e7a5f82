package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvFile is the optional dotenv file read before the environment.
var EnvFile = ".env"

// Load loads configuration from the .env file and environment variables.
// prefix: Environment variable prefix (e.g. "ANYX_")
// target: Pointer to the config struct to load into
//
// ANYX_SERVER_URL becomes the key server.url, so targets nest structs with
// mapstructure tags. Fields without a matching variable keep their value.
func Load(prefix string, target interface{}) error {
	v := viper.New()
	prefixUpper := strings.ToUpper(prefix)

	// 1. Load from .env file (if exists)
	v.SetConfigFile(EnvFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", EnvFile, err)
		}
	}

	settings := make(map[string]string)
	for _, key := range v.AllKeys() {
		settings[strings.ToUpper(key)] = v.GetString(key)
	}

	// 2. Environment variables win over the file
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 {
			continue
		}
		settings[pair[0]] = pair[1]
	}

	out := viper.New()
	for key, value := range settings {
		if !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		// ANYX_PROJECT_ID -> project.id
		propKey := strings.TrimPrefix(key, prefixUpper)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		if propKey == "" {
			continue
		}
		out.Set(propKey, value)
	}

	// 3. Unmarshal into struct
	if err := out.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// Endpoint locates the query endpoint of one project.
type Endpoint struct {
	Server struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"server"`
	Project struct {
		ID string `mapstructure:"id"`
	} `mapstructure:"project"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerURL returns the backend base URL without a trailing slash.
func (e Endpoint) ServerURL() string {
	return strings.TrimRight(e.Server.URL, "/")
}

// ProjectID returns the project the queries are scoped to.
func (e Endpoint) ProjectID() string {
	return e.Project.ID
}

// NewEndpoint builds an Endpoint without touching the environment.
func NewEndpoint(serverURL, projectID string) Endpoint {
	var e Endpoint
	e.Server.URL = serverURL
	e.Project.ID = projectID
	e.Timeout = 30 * time.Second
	return e
}

// LoadEndpoint reads ANYX_SERVER_URL, ANYX_PROJECT_ID and ANYX_TIMEOUT.
func LoadEndpoint() (Endpoint, error) {
	e := NewEndpoint("", "")
	if err := Load("ANYX_", &e); err != nil {
		return Endpoint{}, err
	}
	return e, nil
}
