package stage

import (
	"context"

	"streamwatch/internal/store"
)

// Handler describes the contract the pipeline manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *store.Detection) error
	Execute(context.Context, *store.Detection) error
	HealthCheck(context.Context) Health
}
