package ports

import (
	"context"

	"github.com/skylift/region-advisor/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, result domain.RunResult) error
}
