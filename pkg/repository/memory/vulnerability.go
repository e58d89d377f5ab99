package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type vulnerabilityRepository struct {
	mu    sync.RWMutex
	vulns map[types.VulnerabilityID]*model.Vulnerability
}

func newVulnerabilityRepository() *vulnerabilityRepository {
	return &vulnerabilityRepository{
		vulns: make(map[types.VulnerabilityID]*model.Vulnerability),
	}
}

func cloneVulnerability(v *model.Vulnerability) *model.Vulnerability {
	copied := *v
	if v.DimensionImpact != nil {
		copied.DimensionImpact = make(map[types.Dimension]float64, len(v.DimensionImpact))
		for dim, impact := range v.DimensionImpact {
			copied.DimensionImpact[dim] = impact
		}
	}
	if v.CVEPublishedAt != nil {
		t := *v.CVEPublishedAt
		copied.CVEPublishedAt = &t
	}
	return &copied
}

func (r *vulnerabilityRepository) Put(ctx context.Context, vuln *model.Vulnerability) error {
	if err := vuln.Validate(); err != nil {
		return goerr.Wrap(err, "invalid vulnerability")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneVulnerability(vuln)
	now := time.Now().UTC()
	if existing, ok := r.vulns[vuln.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.vulns[vuln.ID] = stored
	return nil
}

func (r *vulnerabilityRepository) Get(ctx context.Context, id types.VulnerabilityID) (*model.Vulnerability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vuln, exists := r.vulns[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "vulnerability not found", goerr.V("id", id))
	}

	return cloneVulnerability(vuln), nil
}
