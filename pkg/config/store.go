package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/kauth-dev/kauth/pkg/logger"
)

// lockTimeout is the maximum time to wait for a file lock
const lockTimeout = 1 * time.Second

// Store defines the interface for configuration storage operations
type Store interface {
	// Load loads the configuration from storage
	Load(ctx context.Context) (*Config, error)
	// Save saves the configuration to storage
	Save(ctx context.Context, config *Config) error
	// Exists checks if configuration exists in storage
	Exists(ctx context.Context) (bool, error)
	// Update performs a locked update operation on the configuration
	Update(ctx context.Context, updateFn func(*Config)) error
}

// LocalStore implements Store using the local file system
type LocalStore struct {
	configPath string
}

// NewLocalStore creates a new local file-based configuration store.
// An empty configPath selects the per-user default location.
func NewLocalStore(configPath string) *LocalStore {
	return &LocalStore{
		configPath: configPath,
	}
}

func (s *LocalStore) path() (string, error) {
	if s.configPath != "" {
		return s.configPath, nil
	}
	return getConfigPath()
}

// Load loads configuration from the local file, initializing it with
// defaults on first use.
func (s *LocalStore) Load(_ context.Context) (*Config, error) {
	configPath, err := s.path()
	if err != nil {
		return nil, fmt.Errorf("unable to fetch config path: %w", err)
	}
	configPath = path.Clean(configPath)

	var config Config
	_, err = os.Stat(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		config = createNewConfigWithDefaults()
		logger.Debugf("initializing configuration file at %s", configPath)
		if err := config.saveToPath(configPath); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	default:
		// #nosec G304: File path is not configurable at this time.
		configFile, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(configFile, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file yaml: %w", err)
		}
		applyDefaults(&config)
	}

	return &config, nil
}

// Save saves configuration to the local file
func (s *LocalStore) Save(_ context.Context, config *Config) error {
	configPath, err := s.path()
	if err != nil {
		return fmt.Errorf("unable to fetch config path: %w", err)
	}
	return config.saveToPath(configPath)
}

// Exists checks if the local config file exists
func (s *LocalStore) Exists(_ context.Context) (bool, error) {
	configPath, err := s.path()
	if err != nil {
		return false, fmt.Errorf("unable to fetch config path: %w", err)
	}

	_, err = os.Stat(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	return true, nil
}

// Update performs a locked update operation on the configuration
func (s *LocalStore) Update(ctx context.Context, updateFn func(*Config)) error {
	configPath, err := s.path()
	if err != nil {
		return fmt.Errorf("unable to fetch config path: %w", err)
	}

	// Use a separate lock file for cross-platform compatibility
	lockPath := configPath + ".lock"
	fileLock := flock.New(lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout after %v", lockTimeout)
	}
	defer fileLock.Unlock()

	// Load the config after acquiring the lock to avoid race conditions
	config, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	updateFn(config)

	if err := s.Save(ctx, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
