package app

import (
	"context"

	"github.com/skylift/region-advisor/internal/core/ports"
)

// Application bundles the comparison engine with the request built from
// configuration.
type Application struct {
	Engine  ports.RegionComparisonEngine
	Request ports.ComparisonRequest
	Logger  ports.Logger
}

func NewApplication(engine ports.RegionComparisonEngine, request ports.ComparisonRequest, logger ports.Logger) *Application {
	return &Application{
		Engine:  engine,
		Request: request,
		Logger:  logger,
	}
}

func (a *Application) Run(ctx context.Context) error {
	a.Logger.Infof(ctx, "Starting region comparison...")

	err := a.Engine.Run(ctx, a.Request)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Region comparison failed")
		return err
	}

	a.Logger.Infof(ctx, "Region comparison completed successfully")
	return nil
}
