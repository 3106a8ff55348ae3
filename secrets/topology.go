package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/covault/covault/interfaces"
)

// topologyKey is the fixed config-namespace slot for vault topology
// metadata.
const topologyKey = "vault-topology"

// Topology is the non-secret vault metadata that may be persisted across
// restarts: it records that the vault was initialized and with which
// scheme parameters. It never contains shares, keys, or unseal progress.
type Topology struct {
	Initialized bool `json:"initialized"`
	Threshold   int  `json:"threshold"`
	TotalShares int  `json:"total_shares"`
}

// SaveTopology persists the vault topology to the backend's config
// namespace.
func SaveTopology(ctx context.Context, backend interfaces.StorageBackend, t Topology) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}
	if err := backend.Store(ctx, interfaces.ComputeID(topologyKey), data, interfaces.ConfigType); err != nil {
		return fmt.Errorf("failed to store topology: %w", err)
	}
	return nil
}

// LoadTopology reads persisted vault topology. The second return value
// is false when no topology has been persisted.
func LoadTopology(ctx context.Context, backend interfaces.StorageBackend) (Topology, bool, error) {
	data, err := backend.Fetch(ctx, interfaces.ComputeID(topologyKey), interfaces.ConfigType)
	if err != nil {
		if errors.Is(err, interfaces.ErrContentNotFound) {
			return Topology{}, false, nil
		}
		return Topology{}, false, fmt.Errorf("failed to fetch topology: %w", err)
	}

	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return Topology{}, false, fmt.Errorf("failed to decode topology: %w", err)
	}
	return t, true, nil
}
