package service

import (
	"fmt"
	"sync"

	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/errors"
)

// ComponentRegistry holds the pluggable normalization strategies keyed
// by provider id. Special-cased providers (the synthetic disk entry)
// register their own strategy; everything else falls back to the
// default the bootstrap registers per configured provider.
type ComponentRegistry struct {
	mu          sync.RWMutex
	normalizers map[string]ports.Normalizer
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		normalizers: make(map[string]ports.Normalizer),
	}
}

func (r *ComponentRegistry) RegisterNormalizer(normalizer ports.Normalizer) error {
	if normalizer == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil normalizer")
	}
	provider := normalizer.Provider()
	if provider == "" {
		return errors.New(errors.CodeInternal, "normalizer provider id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.normalizers[provider]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("normalizer for provider '%s' already registered", provider))
	}
	r.normalizers[provider] = normalizer
	return nil
}

func (r *ComponentRegistry) GetNormalizer(provider string) (ports.Normalizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalizer, exists := r.normalizers[provider]
	return normalizer, exists
}
