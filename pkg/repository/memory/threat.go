package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type threatRepository struct {
	mu      sync.RWMutex
	threats map[types.ThreatID]*model.Threat
}

func newThreatRepository() *threatRepository {
	return &threatRepository{
		threats: make(map[types.ThreatID]*model.Threat),
	}
}

func cloneThreat(t *model.Threat) *model.Threat {
	copied := *t
	copied.SusceptibleAssetType = append([]string(nil), t.SusceptibleAssetType...)
	if t.Seasonal != nil {
		seasonal := *t.Seasonal
		seasonal.PeakMonths = append([]time.Month(nil), t.Seasonal.PeakMonths...)
		copied.Seasonal = &seasonal
	}
	return &copied
}

func (r *threatRepository) Put(ctx context.Context, threat *model.Threat) error {
	if err := threat.Validate(); err != nil {
		return goerr.Wrap(err, "invalid threat")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneThreat(threat)
	now := time.Now().UTC()
	if existing, ok := r.threats[threat.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.threats[threat.ID] = stored
	return nil
}

func (r *threatRepository) Get(ctx context.Context, id types.ThreatID) (*model.Threat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	threat, exists := r.threats[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", id))
	}

	return cloneThreat(threat), nil
}
