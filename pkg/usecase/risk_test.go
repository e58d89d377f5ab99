package usecase_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/repository/memory"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

var testOrgID = types.OrgID("acme")

func near(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

// fixedClock returns a deterministic time source outside any seasonal peak
func fixedClock() time.Time {
	return time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC)
}

type triadFixture struct {
	asset  *model.Asset
	threat *model.Threat
	vuln   *model.Vulnerability
}

// registerTriad stores a server asset worth 100,000 with partner exposure and
// low criticality, a susceptible geo-neutral threat at probability 0.6, and a
// level-0.8 vulnerability with a functional exploit.
func registerTriad(t *testing.T, repo interfaces.Repository) *triadFixture {
	t.Helper()
	ctx := context.Background()

	asset := &model.Asset{
		ID:             types.NewAssetID(),
		OrganizationID: testOrgID,
		Name:           "billing-db",
		Type:           "server",
		Criticality:    types.CriticalityLow,
		Exposure:       types.ExposurePartner,
		EconomicValue:  100000,
	}
	gt.NoError(t, repo.Asset().Put(ctx, asset)).Required()

	threat := &model.Threat{
		ID:                   types.NewThreatID(),
		Name:                 "ransomware",
		Category:             "malware",
		BaseProbability:      0.6,
		SusceptibleAssetType: []string{"server"},
		GeoRelevance:         types.GeoRelevanceMedium,
	}
	gt.NoError(t, repo.Threat().Put(ctx, threat)).Required()

	vuln := &model.Vulnerability{
		ID:               types.NewVulnerabilityID(),
		AssetID:          asset.ID,
		Name:             "unpatched smb",
		Level:            0.8,
		ExploitMaturity:  types.ExploitMaturityFunctional,
		RemediationLevel: types.RemediationOfficialFix,
		ReportConfidence: types.ConfidenceReasonable,
	}
	gt.NoError(t, repo.Vulnerability().Put(ctx, vuln)).Required()

	return &triadFixture{asset: asset, threat: threat, vuln: vuln}
}

func TestCalculateBaseRisk(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	calc, err := uc.Risk.CalculateBaseRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID)
	gt.NoError(t, err).Required()

	near(t, calc.ThreatProbability, 0.6)
	near(t, calc.VulnerabilityLevel, 0.8)
	near(t, calc.AggregatedImpact, 0.5) // no valuation, neutral default
	near(t, calc.TemporalFactor, 1.2)
	near(t, calc.EnvironmentalFactor, 1.1)
	near(t, calc.BaseRisk, 0.24)
	near(t, calc.AdjustedRisk, 0.3168)
	near(t, calc.Economic.PotentialLoss, 50000)
	near(t, calc.Economic.ExpectedLoss, 15840)
	gt.Value(t, calc.CalculatedAt).Equal(fixedClock().UTC())
}

func TestCalculateBaseRiskIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	first, err := uc.Risk.CalculateBaseRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID)
	gt.NoError(t, err).Required()
	second, err := uc.Risk.CalculateBaseRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID)
	gt.NoError(t, err).Required()

	gt.Value(t, second).Equal(first)
}

func TestCalculateBaseRiskWithValuation(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	f.asset.Valuation = map[types.Dimension]float64{
		types.DimensionConfidentiality: 10,
		types.DimensionIntegrity:       5,
	}
	gt.NoError(t, repo.Asset().Put(ctx, f.asset)).Required()

	f.vuln.DimensionImpact = map[types.Dimension]float64{
		types.DimensionConfidentiality: 0.8,
		types.DimensionIntegrity:       0.4,
	}
	gt.NoError(t, repo.Vulnerability().Put(ctx, f.vuln)).Required()

	calc, err := uc.Risk.CalculateBaseRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID)
	gt.NoError(t, err).Required()

	// (1.0*0.8 + 0.5*0.4) / (1.0 + 0.5)
	near(t, calc.AggregatedImpact, 2.0/3.0)
}

func TestCalculateBaseRiskUnknownAsset(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	_, err := uc.Risk.CalculateBaseRisk(ctx, types.NewAssetID(), f.threat.ID, f.vuln.ID, testOrgID)
	gt.Error(t, err).Is(usecase.ErrNotFound)
}

func TestCalculateBaseRiskInconsistentReference(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	other := &model.Asset{
		ID:             types.NewAssetID(),
		OrganizationID: testOrgID,
		Name:           "web-frontend",
		Type:           "server",
	}
	gt.NoError(t, repo.Asset().Put(ctx, other)).Required()

	_, err := uc.Risk.CalculateBaseRisk(ctx, other.ID, f.threat.ID, f.vuln.ID, testOrgID)
	gt.Error(t, err).Is(usecase.ErrInconsistentReference)
}

func TestCreateCalculatedRisk(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	_, err := uc.Matrix.GenerateDefault(ctx, testOrgID, 5, 5)
	gt.NoError(t, err).Required()

	risk, err := uc.Risk.CreateCalculatedRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID, "analyst-1")
	gt.NoError(t, err).Required()

	gt.Number(t, risk.ID).Equal(int64(1))
	gt.Number(t, risk.Revision).Equal(int64(1))
	gt.Value(t, risk.Name).Equal("ransomware / billing-db")
	gt.Value(t, risk.CreatedBy).Equal("analyst-1")

	// probability 0.6 -> level 3, impact 0.5 -> level 3
	gt.Value(t, risk.MatrixPosition.Position).Equal("33")
	gt.Number(t, risk.MatrixPosition.RiskScore).Equal(9)
	gt.Value(t, risk.Classification.RiskLevel).Equal(types.RiskLevelMedium)
	gt.Value(t, risk.Classification.Category).Equal("malware")
}

func TestCreateCalculatedRiskWithoutMatrix(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	_, err := uc.Risk.CreateCalculatedRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID, "analyst-1")
	gt.Error(t, err).Is(usecase.ErrInvalidConfiguration)
}

func TestRecalculateRisk(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	_, err := uc.Matrix.GenerateDefault(ctx, testOrgID, 5, 5)
	gt.NoError(t, err).Required()

	risk, err := uc.Risk.CreateCalculatedRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID, "analyst-1")
	gt.NoError(t, err).Required()

	// The exploit matured since the first evaluation
	f.vuln.ExploitMaturity = types.ExploitMaturityHigh
	gt.NoError(t, repo.Vulnerability().Put(ctx, f.vuln)).Required()

	updated, err := uc.Risk.RecalculateRisk(ctx, risk.ID)
	gt.NoError(t, err).Required()

	gt.Number(t, updated.Revision).Equal(int64(2))
	near(t, updated.Calculation.TemporalFactor, 1.3)
	near(t, updated.Calculation.AdjustedRisk, 0.24*1.3*1.1)
}

func TestApplyTreatment(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithClock(fixedClock))
	f := registerTriad(t, repo)

	_, err := uc.Matrix.GenerateDefault(ctx, testOrgID, 5, 5)
	gt.NoError(t, err).Required()

	risk, err := uc.Risk.CreateCalculatedRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID, "analyst-1")
	gt.NoError(t, err).Required()

	controls := []model.AppliedControl{
		{Name: "network segmentation", Effectiveness: 0.5},
	}
	treated, err := uc.Risk.ApplyTreatment(ctx, risk.ID, types.TreatmentMitigate, types.TreatmentStatusInProgress, controls)
	gt.NoError(t, err).Required()

	gt.Value(t, treated.Treatment).NotNil().Required()
	gt.Value(t, treated.Treatment.Strategy).Equal(types.TreatmentMitigate)
	gt.Value(t, treated.Treatment.Status).Equal(types.TreatmentStatusInProgress)
	near(t, treated.Treatment.ResidualRisk, risk.Calculation.AdjustedRisk*0.5)
	gt.Number(t, treated.Revision).Equal(int64(2))

	t.Run("empty status defaults to pending", func(t *testing.T) {
		treated, err := uc.Risk.ApplyTreatment(ctx, risk.ID, types.TreatmentAccept, "", nil)
		gt.NoError(t, err).Required()
		gt.Value(t, treated.Treatment.Status).Equal(types.TreatmentStatusPending)
	})

	t.Run("invalid strategy", func(t *testing.T) {
		_, err := uc.Risk.ApplyTreatment(ctx, risk.ID, types.TreatmentStrategy("ignore"), types.TreatmentStatusPending, nil)
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("out-of-range effectiveness", func(t *testing.T) {
		bad := []model.AppliedControl{{Name: "magic", Effectiveness: 1.5}}
		_, err := uc.Risk.ApplyTreatment(ctx, risk.ID, types.TreatmentMitigate, types.TreatmentStatusPending, bad)
		gt.Error(t, err).Is(usecase.ErrValidation)
	})
}

type captureNotifier struct {
	ch chan []model.EscalationRule
}

func (n *captureNotifier) NotifyEscalation(ctx context.Context, risk *model.Risk, rules []model.EscalationRule) error {
	n.ch <- rules
	return nil
}

func TestEscalationDispatch(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	notifier := &captureNotifier{ch: make(chan []model.EscalationRule, 1)}
	uc := usecase.New(repo, usecase.WithClock(fixedClock), usecase.WithNotifier(notifier))
	f := registerTriad(t, repo)

	matrix := model.GenerateDefaultMatrix(testOrgID, 5, 5)
	matrix.EscalationRules = []model.EscalationRule{
		{
			Name:      "notify-risk-owner",
			Condition: model.EscalationCondition{RiskLevels: []types.RiskLevel{types.RiskLevelMedium}},
			Actions:   []string{"email"},
		},
	}
	_, err := uc.Matrix.CreateMatrix(ctx, matrix)
	gt.NoError(t, err).Required()

	risk, err := uc.Risk.CreateCalculatedRisk(ctx, f.asset.ID, f.threat.ID, f.vuln.ID, testOrgID, "analyst-1")
	gt.NoError(t, err).Required()

	select {
	case rules := <-notifier.ch:
		gt.Array(t, rules).Length(1)
		gt.Value(t, rules[0].Name).Equal("notify-risk-owner")
	case <-time.After(time.Second):
		t.Fatal("no escalation notification received")
	}

	matched, err := uc.Risk.MatchedEscalations(ctx, risk.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, matched).Length(1)
}
