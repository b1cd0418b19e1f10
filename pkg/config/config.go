// Package config contains the definition of the application config structure
// and logic required to load and update it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the config file.
const (
	// DefaultClientID is the public OAuth client registered for the CLI.
	DefaultClientID = "kauth-cli"

	// DefaultCallbackPort is the fixed local port the provider redirects to.
	DefaultCallbackPort = 8765

	// DefaultLoginTimeout bounds a single interactive login attempt.
	DefaultLoginTimeout = 5 * time.Minute
)

// Duration wraps time.Duration so config files can use values like "5m".
type Duration struct {
	time.Duration
}

// MarshalYAML encodes the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts either a duration string or a bare number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		seconds, serr := time.ParseDuration(raw + "s")
		if serr != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		parsed = seconds
	}
	d.Duration = parsed
	return nil
}

// ContextStorage selects where the authentication context is persisted.
type ContextStorage string

const (
	// FileStorage keeps the context in an owner-only JSON file.
	FileStorage ContextStorage = "file"
	// KeyringStorage keeps the context in the OS keyring.
	KeyringStorage ContextStorage = "keyring"
)

// Config represents the configuration of the application.
type Config struct {
	// ServerURL is the base URL of the Keycloak instance,
	// e.g. https://sso.example.com
	ServerURL string `yaml:"server_url"`

	// Realm is the default identity provider realm to authenticate against.
	Realm string `yaml:"realm"`

	// ClientID is the OAuth client ID used for the interactive flow.
	ClientID string `yaml:"client_id"`

	// Scopes are the OAuth scopes requested at login.
	Scopes []string `yaml:"scopes"`

	// CallbackPort is the local port for the OAuth redirect.
	CallbackPort int `yaml:"callback_port"`

	// LoginTimeout bounds how long a login waits for the browser callback.
	LoginTimeout Duration `yaml:"login_timeout"`

	// ContextStorage selects the context store backend (file or keyring).
	ContextStorage ContextStorage `yaml:"context_storage"`
}

// Issuer returns the OIDC issuer URL for the configured (or given) realm.
// Keycloak issuers follow the /realms/{realm} convention.
func (c *Config) Issuer(realm string) string {
	if realm == "" {
		realm = c.Realm
	}
	return fmt.Sprintf("%s/realms/%s", trimTrailingSlash(c.ServerURL), realm)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// defaultPathGenerator generates the default config path using xdg
var defaultPathGenerator = func() (string, error) {
	return xdg.ConfigFile("kauth/config.yaml")
}

// getConfigPath is the current path generator, can be replaced in tests
var getConfigPath = defaultPathGenerator

// createNewConfigWithDefaults creates a new config with default values
func createNewConfigWithDefaults() Config {
	return Config{
		ClientID:       DefaultClientID,
		Scopes:         []string{"openid", "profile", "email"},
		CallbackPort:   DefaultCallbackPort,
		LoginTimeout:   Duration{DefaultLoginTimeout},
		ContextStorage: FileStorage,
	}
}

// applyDefaults fills in zero values left by older or hand-edited config files.
func applyDefaults(c *Config) {
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"openid", "profile", "email"}
	}
	if c.CallbackPort == 0 {
		c.CallbackPort = DefaultCallbackPort
	}
	if c.LoginTimeout.Duration == 0 {
		c.LoginTimeout = Duration{DefaultLoginTimeout}
	}
	if c.ContextStorage == "" {
		c.ContextStorage = FileStorage
	}
}

// save serializes the config struct and writes it to the given path.
func (c *Config) saveToPath(configPath string) error {
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return fmt.Errorf("unable to fetch config path: %w", err)
		}
	}

	configBytes, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing config file: %w", err)
	}

	err = os.WriteFile(configPath, configBytes, 0600)
	if err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
