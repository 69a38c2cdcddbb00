package ports

import (
	"context"

	"github.com/skylift/region-advisor/internal/core/domain"
)

// Normalizer converts one provider's raw response bytes into the
// uniform ProviderSet model. Implementations are selected per provider
// id through the component registry, so special-cased providers never
// leak conditionals into the fetch or diff paths.
type Normalizer interface {
	Provider() string
	Normalize(ctx context.Context, raw []byte, region string) (domain.ProviderSet, error)
}
