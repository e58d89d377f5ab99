package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type riskRepository struct {
	mu     sync.RWMutex
	risks  map[int64]*model.Risk
	nextID int64
}

func newRiskRepository() *riskRepository {
	return &riskRepository{
		risks:  make(map[int64]*model.Risk),
		nextID: 1,
	}
}

func cloneRisk(r *model.Risk) *model.Risk {
	copied := *r
	if r.Calculation.DimensionImpact != nil {
		copied.Calculation.DimensionImpact = make(map[types.Dimension]float64, len(r.Calculation.DimensionImpact))
		for dim, v := range r.Calculation.DimensionImpact {
			copied.Calculation.DimensionImpact[dim] = v
		}
	}
	if r.Quantitative.MonteCarlo != nil {
		ci := *r.Quantitative.MonteCarlo
		copied.Quantitative.MonteCarlo = &ci
	}
	if r.Quantitative.LastSimulatedAt != nil {
		t := *r.Quantitative.LastSimulatedAt
		copied.Quantitative.LastSimulatedAt = &t
	}
	if r.Treatment != nil {
		treatment := *r.Treatment
		treatment.Controls = append([]model.AppliedControl(nil), r.Treatment.Controls...)
		copied.Treatment = &treatment
	}
	return &copied
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := cloneRisk(risk)
	created.ID = r.nextID
	created.Revision = 1
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.risks[created.ID] = created
	return cloneRisk(created), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
	}

	return cloneRisk(risk), nil
}

func (r *riskRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.risks))
	for _, risk := range r.risks {
		if risk.OrganizationID == orgID {
			risks = append(risks, cloneRisk(risk))
		}
	}

	return risks, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.risks[risk.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", risk.ID))
	}

	if existing.Revision != risk.Revision {
		return nil, goerr.Wrap(ErrRevisionMismatch, "risk was modified concurrently",
			goerr.V("id", risk.ID),
			goerr.V("stored", existing.Revision),
			goerr.V("given", risk.Revision),
		)
	}

	updated := cloneRisk(risk)
	updated.CreatedAt = existing.CreatedAt
	updated.Revision = existing.Revision + 1
	updated.UpdatedAt = time.Now().UTC()

	r.risks[updated.ID] = updated
	return cloneRisk(updated), nil
}

func (r *riskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.risks[id]; !exists {
		return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
	}

	delete(r.risks, id)
	return nil
}
