package quota

import (
	"sync"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// Matcher maps a resource type to the quota metric family that governs
// it. The table is data, not logic: registering a new family never
// touches the matching algorithm.
type Matcher struct {
	mu       sync.RWMutex
	families map[string]string
}

// defaultFamilies covers the resource types the upstream quota API
// reports against named metric families.
var defaultFamilies = map[string]string{
	"virtualmachines":         "cores",
	"virtualmachinescalesets": "cores",
	"availabilitysets":        "availabilitySets",
	"disks":                   "StandardDiskCount",
	"snapshots":               "StandardSnapshotCount",
	"publicipaddresses":       "PublicIPAddresses",
	"virtualnetworks":         "VirtualNetworks",
	"networkinterfaces":       "NetworkInterfaces",
	"loadbalancers":           "LoadBalancers",
	"storageaccounts":         "StorageAccounts",
}

func NewMatcher() *Matcher {
	families := make(map[string]string, len(defaultFamilies))
	for k, v := range defaultFamilies {
		families[domain.NormalizeKey(k)] = v
	}
	return &Matcher{families: families}
}

// RegisterFamily adds or overrides a resource-type to metric-family
// mapping.
func (m *Matcher) RegisterFamily(resourceType, metricName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.families[domain.NormalizeKey(resourceType)] = metricName
}

func (m *Matcher) metricFor(resourceType string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.families[domain.NormalizeKey(resourceType)]
	return name, ok
}
