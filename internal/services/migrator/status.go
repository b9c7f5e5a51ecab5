package migrator

import (
	"context"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// StatusReport is the read-only operator summary: recorded runs plus
// any current lock records.
type StatusReport struct {
	Records []*entities.HistoryRecord
	Locks   []*entities.Lock
}

// Status gathers the status report. Read-only, so no lock is taken.
func (e *Executor) Status(ctx context.Context) (*StatusReport, error) {
	records, err := e.history.List(ctx)
	if err != nil {
		return nil, err
	}
	locks, err := e.locks.Active(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusReport{Records: records, Locks: locks}, nil
}
