package memory_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/repository/memory"
)

var testOrgID = types.OrgID("acme")

func TestAssetRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	asset := &model.Asset{
		ID:             types.NewAssetID(),
		OrganizationID: testOrgID,
		Name:           "payroll-db",
		Type:           "database",
		EconomicValue:  250000,
	}
	gt.NoError(t, repo.Asset().Put(ctx, asset)).Required()

	t.Run("get returns the stored asset", func(t *testing.T) {
		got, err := repo.Asset().Get(ctx, asset.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("payroll-db")
		gt.Value(t, got.CreatedAt.IsZero()).Equal(false)
	})

	t.Run("put again preserves creation time", func(t *testing.T) {
		before, err := repo.Asset().Get(ctx, asset.ID)
		gt.NoError(t, err).Required()

		asset.Name = "payroll-db-replica"
		gt.NoError(t, repo.Asset().Put(ctx, asset)).Required()

		after, err := repo.Asset().Get(ctx, asset.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, after.Name).Equal("payroll-db-replica")
		gt.Value(t, after.CreatedAt).Equal(before.CreatedAt)
	})

	t.Run("get unknown asset", func(t *testing.T) {
		_, err := repo.Asset().Get(ctx, types.NewAssetID())
		gt.Error(t, err).Is(memory.ErrNotFound)
	})

	t.Run("list filters by organization", func(t *testing.T) {
		other := &model.Asset{
			ID:             types.NewAssetID(),
			OrganizationID: types.OrgID("umbrella"),
			Name:           "lab-server",
			Type:           "server",
		}
		gt.NoError(t, repo.Asset().Put(ctx, other)).Required()

		assets, err := repo.Asset().List(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Array(t, assets).Length(1)
	})

	t.Run("invalid asset is rejected", func(t *testing.T) {
		bad := &model.Asset{ID: types.NewAssetID(), OrganizationID: testOrgID}
		gt.Error(t, repo.Asset().Put(ctx, bad))
	})
}

func validRisk() *model.Risk {
	return &model.Risk{
		OrganizationID:  testOrgID,
		AssetID:         types.NewAssetID(),
		ThreatID:        types.NewThreatID(),
		VulnerabilityID: types.NewVulnerabilityID(),
		Name:            "ransomware / payroll-db",
		Calculation: model.Calculation{
			ThreatProbability:  0.6,
			VulnerabilityLevel: 0.8,
			AggregatedImpact:   0.5,
			BaseRisk:           0.24,
			AdjustedRisk:       0.3,
		},
		MatrixPosition: model.NewMatrixPosition(0.6, 0.5),
	}
}

func TestRiskRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	created, err := repo.Risk().Create(ctx, validRisk())
	gt.NoError(t, err).Required()
	gt.Number(t, created.ID).Equal(int64(1))
	gt.Number(t, created.Revision).Equal(int64(1))

	t.Run("ids are sequential", func(t *testing.T) {
		second, err := repo.Risk().Create(ctx, validRisk())
		gt.NoError(t, err).Required()
		gt.Number(t, second.ID).Equal(int64(2))
	})

	t.Run("update bumps the revision", func(t *testing.T) {
		created.Name = "renamed"
		updated, err := repo.Risk().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Number(t, updated.Revision).Equal(int64(2))
		gt.Value(t, updated.CreatedAt).Equal(created.CreatedAt)
	})

	t.Run("stale revision is rejected", func(t *testing.T) {
		stale := *created // still at revision 1
		_, err := repo.Risk().Update(ctx, &stale)
		gt.Error(t, err).Is(memory.ErrRevisionMismatch)
	})

	t.Run("delete removes the risk", func(t *testing.T) {
		gt.NoError(t, repo.Risk().Delete(ctx, created.ID)).Required()
		_, err := repo.Risk().Get(ctx, created.ID)
		gt.Error(t, err).Is(memory.ErrNotFound)
	})

	t.Run("delete unknown risk", func(t *testing.T) {
		gt.Error(t, repo.Risk().Delete(ctx, 999)).Is(memory.ErrNotFound)
	})
}

func TestMatrixRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	first, err := repo.Matrix().Create(ctx, model.GenerateDefaultMatrix(testOrgID, 5, 5))
	gt.NoError(t, err).Required()

	t.Run("created default is retrievable", func(t *testing.T) {
		def, err := repo.Matrix().GetDefault(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Value(t, def.ID).Equal(first.ID)
	})

	t.Run("set default swaps atomically", func(t *testing.T) {
		second, err := repo.Matrix().Create(ctx, model.GenerateDefaultMatrix(testOrgID, 5, 5))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Matrix().SetDefault(ctx, testOrgID, first.ID)).Required()

		def, err := repo.Matrix().GetDefault(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Value(t, def.ID).Equal(first.ID)

		// Exactly one default survives the swap
		matrices, err := repo.Matrix().List(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Array(t, matrices).Length(2)
		defaults := 0
		for _, m := range matrices {
			if m.IsDefault {
				defaults++
			}
		}
		gt.Number(t, defaults).Equal(1)

		demoted, err := repo.Matrix().Get(ctx, second.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, demoted.IsDefault).Equal(false)
	})

	t.Run("no default for unknown organization", func(t *testing.T) {
		_, err := repo.Matrix().GetDefault(ctx, types.OrgID("nobody"))
		gt.Error(t, err).Is(memory.ErrNotFound)
	})
}
