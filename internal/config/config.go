// Package config loads the optional YAML file that overrides the
// reason-string-to-wire-id table a daemon reports in is_shutdown
// notifications. Most deployments never need one: internal/demotable.ReasonIDs
// already covers every reason this repo's own dispatcher can raise. The file
// exists for a peer that was built against a different numbering.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReasonLabels is the on-disk shape: a plain map from the protocol's reason
// string (e.g. "Invalid command") to the numeric static_string_id a peer
// expects to see on the wire.
type ReasonLabels struct {
	Reasons map[string]uint16 `yaml:"reasons"`
}

// LoadReasonLabels reads and parses path. A missing file is not an error --
// it just means "use the built-in defaults" -- but a malformed one is.
func LoadReasonLabels(path string) (*ReasonLabels, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ReasonLabels{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var labels ReasonLabels
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &labels, nil
}

// Merge returns a copy of defaults with every entry in l.Reasons overlaid on
// top, so a config file only needs to list the reasons it wants to change.
func (l *ReasonLabels) Merge(defaults map[string]uint16) map[string]uint16 {
	merged := make(map[string]uint16, len(defaults)+len(l.Reasons))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range l.Reasons {
		merged[k] = v
	}
	return merged
}
