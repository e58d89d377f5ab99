package firestore_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/repository/firestore"
)

var testOrgID = types.OrgID("acme")

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestFirestoreAssetRepository(t *testing.T) {
	repo := newFirestoreRepository(t)
	ctx := context.Background()

	asset := &model.Asset{
		ID:             types.NewAssetID(),
		OrganizationID: testOrgID,
		Name:           "payroll-db",
		Type:           "database",
		EconomicValue:  250000,
		Valuation: map[types.Dimension]float64{
			types.DimensionConfidentiality: 9,
		},
	}
	gt.NoError(t, repo.Asset().Put(ctx, asset)).Required()

	got, err := repo.Asset().Get(ctx, asset.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Name).Equal("payroll-db")
	gt.Number(t, got.Valuation[types.DimensionConfidentiality]).Equal(9.0)

	_, err = repo.Asset().Get(ctx, types.NewAssetID())
	gt.Error(t, err).Is(firestore.ErrNotFound)

	assets, err := repo.Asset().List(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Array(t, assets).Length(1)
}

func TestFirestoreRiskRepository(t *testing.T) {
	repo := newFirestoreRepository(t)
	ctx := context.Background()

	risk := &model.Risk{
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

	created, err := repo.Risk().Create(ctx, risk)
	gt.NoError(t, err).Required()
	gt.Number(t, created.ID).Equal(int64(1))
	gt.Number(t, created.Revision).Equal(int64(1))

	t.Run("sequential IDs", func(t *testing.T) {
		second, err := repo.Risk().Create(ctx, risk)
		gt.NoError(t, err).Required()
		gt.Number(t, second.ID).Equal(int64(2))
	})

	t.Run("revision check on update", func(t *testing.T) {
		created.Name = "renamed"
		updated, err := repo.Risk().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Number(t, updated.Revision).Equal(int64(2))

		stale := *created
		_, err = repo.Risk().Update(ctx, &stale)
		gt.Error(t, err).Is(firestore.ErrRevisionMismatch)
	})

	t.Run("delete", func(t *testing.T) {
		gt.NoError(t, repo.Risk().Delete(ctx, created.ID)).Required()
		_, err := repo.Risk().Get(ctx, created.ID)
		gt.Error(t, err).Is(firestore.ErrNotFound)
	})
}

func TestFirestoreMatrixRepository(t *testing.T) {
	repo := newFirestoreRepository(t)
	ctx := context.Background()

	first, err := repo.Matrix().Create(ctx, model.GenerateDefaultMatrix(testOrgID, 5, 5))
	gt.NoError(t, err).Required()

	def, err := repo.Matrix().GetDefault(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, def.ID).Equal(first.ID)

	t.Run("unbounded impact scale survives the round trip", func(t *testing.T) {
		top := def.ImpactScale[len(def.ImpactScale)-1]
		gt.Value(t, math.IsInf(top.Max, 1)).Equal(true)
	})

	t.Run("swap keeps a single default", func(t *testing.T) {
		second, err := repo.Matrix().Create(ctx, model.GenerateDefaultMatrix(testOrgID, 5, 5))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Matrix().SetDefault(ctx, testOrgID, first.ID)).Required()

		def, err := repo.Matrix().GetDefault(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Value(t, def.ID).Equal(first.ID)

		demoted, err := repo.Matrix().Get(ctx, second.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, demoted.IsDefault).Equal(false)
	})
}
