package extension

import (
	"sort"
	"sync"

	"github.com/viant/procflow/model/types"
)

// Integrations provides named automation integrations
type Integrations struct {
	items map[string]types.Integration
	mux   sync.RWMutex
}

// Lookup returns an integration by name
func (s *Integrations) Lookup(name string) types.Integration {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.items[name]
}

// Register registers integrations, replacing existing ones with the same name
func (s *Integrations) Register(integrations ...types.Integration) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, integration := range integrations {
		if integration == nil {
			continue
		}
		s.items[integration.Name()] = integration
	}
}

// Names returns registered integration names
func (s *Integrations) Names() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	result := make([]string, 0, len(s.items))
	for name := range s.items {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// NewIntegrations creates a new integration registry
func NewIntegrations(integrations ...types.Integration) *Integrations {
	ret := &Integrations{items: make(map[string]types.Integration)}
	ret.Register(integrations...)
	return ret
}
