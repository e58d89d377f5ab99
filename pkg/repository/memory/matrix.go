package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type matrixRepository struct {
	mu       sync.RWMutex
	matrices map[types.MatrixID]*model.RiskMatrix
}

func newMatrixRepository() *matrixRepository {
	return &matrixRepository{
		matrices: make(map[types.MatrixID]*model.RiskMatrix),
	}
}

func cloneMatrix(m *model.RiskMatrix) *model.RiskMatrix {
	copied := *m
	copied.ProbabilityScale = append([]model.ScaleEntry(nil), m.ProbabilityScale...)
	copied.ImpactScale = append([]model.ScaleEntry(nil), m.ImpactScale...)
	copied.Cells = append([]model.MatrixCell(nil), m.Cells...)
	copied.EscalationRules = make([]model.EscalationRule, len(m.EscalationRules))
	for i, rule := range m.EscalationRules {
		copied.EscalationRules[i] = rule
		copied.EscalationRules[i].Actions = append([]string(nil), rule.Actions...)
		copied.EscalationRules[i].Condition.RiskLevels = append([]types.RiskLevel(nil), rule.Condition.RiskLevels...)
		if rule.Condition.MinScore != nil {
			v := *rule.Condition.MinScore
			copied.EscalationRules[i].Condition.MinScore = &v
		}
		if rule.Condition.MaxScore != nil {
			v := *rule.Condition.MaxScore
			copied.EscalationRules[i].Condition.MaxScore = &v
		}
	}
	return &copied
}

func (r *matrixRepository) Create(ctx context.Context, matrix *model.RiskMatrix) (*model.RiskMatrix, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matrices[matrix.ID]; exists {
		return nil, goerr.New("matrix already exists", goerr.V("id", matrix.ID))
	}

	now := time.Now().UTC()
	created := cloneMatrix(matrix)
	created.CreatedAt = now
	created.UpdatedAt = now

	// The default slot must stay unique even on direct creation
	if created.IsDefault {
		for _, m := range r.matrices {
			if m.OrganizationID == created.OrganizationID && m.IsDefault {
				m.IsDefault = false
				m.UpdatedAt = now
			}
		}
	}

	r.matrices[created.ID] = created
	return cloneMatrix(created), nil
}

func (r *matrixRepository) Get(ctx context.Context, id types.MatrixID) (*model.RiskMatrix, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matrix, exists := r.matrices[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "matrix not found", goerr.V("id", id))
	}

	return cloneMatrix(matrix), nil
}

func (r *matrixRepository) GetDefault(ctx context.Context, orgID types.OrgID) (*model.RiskMatrix, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, matrix := range r.matrices {
		if matrix.OrganizationID == orgID && matrix.IsDefault && matrix.IsActive {
			return cloneMatrix(matrix), nil
		}
	}

	return nil, goerr.Wrap(ErrNotFound, "no default matrix for organization", goerr.V("orgID", orgID))
}

func (r *matrixRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.RiskMatrix, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matrices := make([]*model.RiskMatrix, 0, len(r.matrices))
	for _, matrix := range r.matrices {
		if matrix.OrganizationID == orgID {
			matrices = append(matrices, cloneMatrix(matrix))
		}
	}

	return matrices, nil
}

// SetDefault swaps the organization's default matrix under a single lock so
// a concurrent reader never observes two defaults.
func (r *matrixRepository) SetDefault(ctx context.Context, orgID types.OrgID, id types.MatrixID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, exists := r.matrices[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "matrix not found", goerr.V("id", id))
	}
	if target.OrganizationID != orgID {
		return goerr.New("matrix belongs to another organization",
			goerr.V("id", id), goerr.V("orgID", orgID))
	}

	now := time.Now().UTC()
	for _, m := range r.matrices {
		if m.OrganizationID == orgID && m.IsDefault && m.ID != id {
			m.IsDefault = false
			m.UpdatedAt = now
		}
	}

	target.IsDefault = true
	target.IsActive = true
	target.UpdatedAt = now
	return nil
}
