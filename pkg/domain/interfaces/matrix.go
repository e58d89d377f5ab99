package interfaces

import (
	"context"

	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type MatrixRepository interface {
	// Create stores a new matrix version
	Create(ctx context.Context, matrix *model.RiskMatrix) (*model.RiskMatrix, error)

	// Get retrieves a matrix by ID
	Get(ctx context.Context, id types.MatrixID) (*model.RiskMatrix, error)

	// GetDefault retrieves the active default matrix of an organization
	GetDefault(ctx context.Context, orgID types.OrgID) (*model.RiskMatrix, error)

	// List retrieves all matrices of an organization
	List(ctx context.Context, orgID types.OrgID) ([]*model.RiskMatrix, error)

	// SetDefault promotes the given matrix to the organization's default and
	// clears the previous default in the same atomic operation. A concurrent
	// reader never observes two defaults.
	SetDefault(ctx context.Context, orgID types.OrgID, id types.MatrixID) error
}
