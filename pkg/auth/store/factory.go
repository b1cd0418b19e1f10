package store

import (
	"fmt"

	"github.com/kauth-dev/kauth/pkg/config"
)

// NewStore creates the context store selected by the configuration.
func NewStore(storage config.ContextStorage) (Store, error) {
	switch storage {
	case config.FileStorage, "":
		return NewFileStore("")
	case config.KeyringStorage:
		return NewKeyringStore(), nil
	default:
		return nil, fmt.Errorf("unknown context storage type: %s", storage)
	}
}
