package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// MatrixUseCase manages risk matrix versions and the default-matrix
// invariant. The atomic swap itself is the repository's job; this layer
// validates and produces the intent.
type MatrixUseCase struct {
	repo interfaces.Repository
}

func NewMatrixUseCase(repo interfaces.Repository) *MatrixUseCase {
	return &MatrixUseCase{repo: repo}
}

// CreateMatrix validates and stores a matrix version. Creation fails with
// every violation attached when the configuration is inconsistent.
func (uc *MatrixUseCase) CreateMatrix(ctx context.Context, matrix *model.RiskMatrix) (*model.RiskMatrix, error) {
	if violations := matrix.Validate(); len(violations) > 0 {
		return nil, goerr.Wrap(ErrInvalidConfiguration, "matrix configuration is inconsistent",
			goerr.V(MatrixIDKey, matrix.ID),
			goerr.V("violations", violations),
		)
	}

	created, err := uc.repo.Matrix().Create(ctx, matrix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create matrix", goerr.V(MatrixIDKey, matrix.ID))
	}

	return created, nil
}

// GenerateDefault builds and stores the deterministic default matrix for an
// organization and promotes it to the default slot
func (uc *MatrixUseCase) GenerateDefault(ctx context.Context, orgID types.OrgID, probLevels, impactLevels int) (*model.RiskMatrix, error) {
	matrix := model.GenerateDefaultMatrix(orgID, probLevels, impactLevels)

	created, err := uc.CreateMatrix(ctx, matrix)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Matrix().SetDefault(ctx, orgID, created.ID); err != nil {
		return nil, goerr.Wrap(err, "failed to promote default matrix", goerr.V(MatrixIDKey, created.ID))
	}

	return uc.repo.Matrix().Get(ctx, created.ID)
}

// ActivateDefault promotes an existing matrix to the organization's default.
// The repository applies the activate/deactivate pair atomically, so no
// reader ever observes two defaults.
func (uc *MatrixUseCase) ActivateDefault(ctx context.Context, orgID types.OrgID, id types.MatrixID) (*model.RiskMatrix, error) {
	matrix, err := uc.repo.Matrix().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrNotFound, "matrix not found", goerr.V(MatrixIDKey, id))
	}

	if violations := matrix.Validate(); len(violations) > 0 {
		return nil, goerr.Wrap(ErrInvalidConfiguration, "matrix cannot be activated with violations",
			goerr.V(MatrixIDKey, id),
			goerr.V("violations", violations),
		)
	}

	if err := uc.repo.Matrix().SetDefault(ctx, orgID, id); err != nil {
		return nil, goerr.Wrap(err, "failed to set default matrix", goerr.V(MatrixIDKey, id))
	}

	return uc.repo.Matrix().Get(ctx, id)
}

// GetDefault returns the organization's active default matrix
func (uc *MatrixUseCase) GetDefault(ctx context.Context, orgID types.OrgID) (*model.RiskMatrix, error) {
	matrix, err := uc.repo.Matrix().GetDefault(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfiguration, "no active default matrix for organization", goerr.V(OrgIDKey, orgID))
	}
	return matrix, nil
}
