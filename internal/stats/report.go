package stats

import (
	"context"

	"github.com/verte-zerg/proxgrid/internal/model"
	"github.com/verte-zerg/proxgrid/internal/store"
)

// History contains stored records for history rendering.
type History struct {
	Exports     []model.ExportRecord
	Simulations []model.SimulationRecord
}

// BuildHistory loads exports and simulation runs matching filter.
func BuildHistory(ctx context.Context, st *store.Store, filter model.HistoryFilter) (History, error) {
	exports, err := st.ListExports(ctx, filter)
	if err != nil {
		return History{}, err
	}
	sims, err := st.ListSimulations(ctx, filter)
	if err != nil {
		return History{}, err
	}
	return History{Exports: exports, Simulations: sims}, nil
}
