package inspector

import (
	"context"
	"fmt"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/repositories"
)

// Inspector reads the current remote schema state. Its output is the
// "remote truth" side of every diff.
type Inspector struct {
	schemas repositories.SchemaRepository
}

// New creates a new Inspector
func New(schemas repositories.SchemaRepository) *Inspector {
	return &Inspector{schemas: schemas}
}

// Describe returns the observed remote state of all managed collections
func (i *Inspector) Describe(ctx context.Context) (entities.RemoteState, error) {
	state, err := i.schemas.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect remote schema: %w", err)
	}
	return state, nil
}
