package spend

import (
	"errors"
	"fmt"
)

// Key addresses one ledger entry: (config_name, project_id).
type Key struct {
	configName string
	projectID  uint64
}

// NewKey validates and creates a Key.
func NewKey(configName string, projectID uint64) (Key, error) {
	if configName == "" {
		return Key{}, errors.New("config name is required")
	}
	return Key{configName: configName, projectID: projectID}, nil
}

// ConfigName returns the budget configuration name.
func (k Key) ConfigName() string { return k.configName }

// ProjectID returns the project identifier.
func (k Key) ProjectID() uint64 { return k.projectID }

// String renders the key for logs and diagnostics.
func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.configName, k.projectID)
}
