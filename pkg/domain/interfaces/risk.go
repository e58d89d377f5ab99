package interfaces

import (
	"context"

	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type RiskRepository interface {
	// Create creates a new risk with auto-generated ID and revision 1
	Create(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Get retrieves a risk by ID
	Get(ctx context.Context, id int64) (*model.Risk, error)

	// List retrieves all risks of an organization
	List(ctx context.Context, orgID types.OrgID) ([]*model.Risk, error)

	// Update replaces an existing risk. The update is rejected with
	// ErrRevisionMismatch when the given risk's revision does not match the
	// stored one; on success the stored revision is incremented.
	Update(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Delete deletes a risk by ID
	Delete(ctx context.Context, id int64) error
}
