package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"github.com/secmon-lab/moirai/pkg/utils/async"
	"github.com/secmon-lab/moirai/pkg/utils/logging"
)

// RiskUseCase is the deterministic risk calculator. It is a pure function of
// the entity snapshots it reads plus the injected clock, so concurrent calls
// for different risks run fully in parallel.
type RiskUseCase struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
	clock    func() time.Time
}

func NewRiskUseCase(repo interfaces.Repository, notifier interfaces.Notifier, clock func() time.Time) *RiskUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &RiskUseCase{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
	}
}

type triad struct {
	asset  *model.Asset
	threat *model.Threat
	vuln   *model.Vulnerability
}

// resolveTriad fetches the three entities concurrently; they have no data
// dependency on each other.
func (uc *RiskUseCase) resolveTriad(ctx context.Context, assetID types.AssetID, threatID types.ThreatID, vulnID types.VulnerabilityID) (*triad, error) {
	var t triad

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		asset, err := uc.repo.Asset().Get(ctx, assetID)
		if err != nil {
			return goerr.Wrap(ErrNotFound, "asset not found", goerr.V(AssetIDKey, assetID))
		}
		t.asset = asset
		return nil
	})
	eg.Go(func() error {
		threat, err := uc.repo.Threat().Get(ctx, threatID)
		if err != nil {
			return goerr.Wrap(ErrNotFound, "threat not found", goerr.V(ThreatIDKey, threatID))
		}
		t.threat = threat
		return nil
	})
	eg.Go(func() error {
		vuln, err := uc.repo.Vulnerability().Get(ctx, vulnID)
		if err != nil {
			return goerr.Wrap(ErrNotFound, "vulnerability not found", goerr.V(VulnIDKey, vulnID))
		}
		t.vuln = vuln
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if t.vuln.AssetID != assetID {
		return nil, goerr.Wrap(ErrInconsistentReference, "vulnerability does not belong to the asset",
			goerr.V(VulnIDKey, vulnID),
			goerr.V(AssetIDKey, assetID),
			goerr.V("vulnerability_asset_id", t.vuln.AssetID),
		)
	}

	return &t, nil
}

// CalculateBaseRisk computes the full deterministic scoring block for a
// triad without persisting anything. Calling it twice with identical inputs
// and unchanged entities yields identical output.
func (uc *RiskUseCase) CalculateBaseRisk(ctx context.Context, assetID types.AssetID, threatID types.ThreatID, vulnID types.VulnerabilityID, orgID types.OrgID) (*model.Calculation, error) {
	t, err := uc.resolveTriad(ctx, assetID, threatID, vulnID)
	if err != nil {
		return nil, err
	}

	calc := buildCalculation(t.asset, t.threat, t.vuln, uc.clock())
	return &calc, nil
}

// CreateCalculatedRisk evaluates a triad and persists the resulting risk.
// It requires an active default matrix for the organization.
func (uc *RiskUseCase) CreateCalculatedRisk(ctx context.Context, assetID types.AssetID, threatID types.ThreatID, vulnID types.VulnerabilityID, orgID types.OrgID, actorID string) (*model.Risk, error) {
	matrix, err := uc.repo.Matrix().GetDefault(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfiguration, "no active default matrix for organization", goerr.V(OrgIDKey, orgID))
	}

	t, err := uc.resolveTriad(ctx, assetID, threatID, vulnID)
	if err != nil {
		return nil, err
	}

	calc := buildCalculation(t.asset, t.threat, t.vuln, uc.clock())
	risk := &model.Risk{
		OrganizationID:  orgID,
		AssetID:         assetID,
		ThreatID:        threatID,
		VulnerabilityID: vulnID,
		Name:            fmt.Sprintf("%s / %s", t.threat.Name, t.asset.Name),
		Calculation:     calc,
		CreatedBy:       actorID,
	}
	classify(risk, matrix, t.asset, t.threat)

	if err := risk.Validate(); err != nil {
		return nil, goerr.Wrap(err, "calculated risk failed validation")
	}

	created, err := uc.repo.Risk().Create(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create risk")
	}

	uc.dispatchEscalations(ctx, created, matrix)

	return created, nil
}

// RecalculateRisk re-resolves the triad and replaces the risk's calculation
// and matrix blocks. It returns a complete replacement object; concurrent
// recalculation conflicts surface from the repository's revision check.
func (uc *RiskUseCase) RecalculateRisk(ctx context.Context, id int64) (*model.Risk, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V(RiskIDKey, id))
	}

	matrix, err := uc.repo.Matrix().GetDefault(ctx, risk.OrganizationID)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfiguration, "no active default matrix for organization", goerr.V(OrgIDKey, risk.OrganizationID))
	}

	t, err := uc.resolveTriad(ctx, risk.AssetID, risk.ThreatID, risk.VulnerabilityID)
	if err != nil {
		return nil, err
	}

	risk.Calculation = buildCalculation(t.asset, t.threat, t.vuln, uc.clock())
	classify(risk, matrix, t.asset, t.threat)

	if risk.Treatment != nil {
		risk.Treatment.ResidualRisk = model.ResidualRisk(risk.Calculation.AdjustedRisk, risk.Treatment.Controls)
	}

	updated, err := uc.repo.Risk().Update(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V(RiskIDKey, id))
	}

	return updated, nil
}

// ApplyTreatment records a treatment decision and its residual risk
func (uc *RiskUseCase) ApplyTreatment(ctx context.Context, id int64, strategy types.TreatmentStrategy, status types.TreatmentStatus, controls []model.AppliedControl) (*model.Risk, error) {
	if !strategy.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid treatment strategy", goerr.V("strategy", strategy))
	}
	status = status.Normalize()
	if !status.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid treatment status", goerr.V("status", status))
	}
	for _, c := range controls {
		if c.Effectiveness < 0 || c.Effectiveness > 1 {
			return nil, goerr.Wrap(ErrValidation, "control effectiveness must be between 0 and 1",
				goerr.V("control", c.Name), goerr.V("effectiveness", c.Effectiveness))
		}
	}

	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V(RiskIDKey, id))
	}

	risk.Treatment = &model.Treatment{
		Strategy:     strategy,
		Status:       status,
		Controls:     controls,
		ResidualRisk: model.ResidualRisk(risk.Calculation.AdjustedRisk, controls),
		UpdatedAt:    uc.clock().UTC(),
	}

	updated, err := uc.repo.Risk().Update(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V(RiskIDKey, id))
	}

	return updated, nil
}

// MatchedEscalations returns the escalation rules of the organization's
// default matrix that hold for the given risk
func (uc *RiskUseCase) MatchedEscalations(ctx context.Context, id int64) ([]model.EscalationRule, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V(RiskIDKey, id))
	}

	matrix, err := uc.repo.Matrix().GetDefault(ctx, risk.OrganizationID)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfiguration, "no active default matrix for organization", goerr.V(OrgIDKey, risk.OrganizationID))
	}

	return matrix.MatchEscalationRules(risk), nil
}

// dispatchEscalations hands matched rules to the notification collaborator
// without blocking the caller
func (uc *RiskUseCase) dispatchEscalations(ctx context.Context, risk *model.Risk, matrix *model.RiskMatrix) {
	if uc.notifier == nil {
		return
	}
	rules := matrix.MatchEscalationRules(risk)
	if len(rules) == 0 {
		return
	}

	logging.From(ctx).Info("dispatching escalation notification",
		"risk_id", risk.ID, "rules", len(rules))
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.NotifyEscalation(ctx, risk, rules)
	})
}

// classify fills the matrix position and classification blocks from the
// calculation and the organization's matrix
func classify(risk *model.Risk, matrix *model.RiskMatrix, asset *model.Asset, threat *model.Threat) {
	pos := model.NewMatrixPosition(risk.Calculation.ThreatProbability, risk.Calculation.AggregatedImpact)
	risk.MatrixPosition = pos

	level := types.RiskLevelForScore(float64(pos.RiskScore))
	if cell := matrix.RiskLevelAt(pos.ProbabilityLevel, pos.ImpactLevel); cell != nil {
		level = cell.RiskLevel
	}
	risk.Classification = model.Classification{
		RiskLevel:        level,
		Category:         threat.Category,
		BusinessFunction: asset.BusinessFunction,
	}
}

// buildCalculation runs the deterministic scoring pipeline:
// baseRisk = threatProbability x vulnerabilityLevel x aggregatedImpact,
// adjustedRisk = min(baseRisk x temporal x environmental, 1).
func buildCalculation(asset *model.Asset, threat *model.Threat, vuln *model.Vulnerability, now time.Time) model.Calculation {
	tp := threatProbability(asset, threat, now)
	agg, dims := aggregatedImpact(asset, vuln)
	tf := temporalFactor(vuln, now)
	ef := environmentalFactor(asset)

	base := tp * vuln.Level * agg
	adjusted := math.Min(base*tf*ef, 1.0)

	potential := asset.EconomicValue * agg
	expected := potential * adjusted

	return model.Calculation{
		ThreatProbability:   tp,
		VulnerabilityLevel:  vuln.Level,
		DimensionImpact:     dims,
		AggregatedImpact:    agg,
		TemporalFactor:      tf,
		EnvironmentalFactor: ef,
		BaseRisk:            base,
		AdjustedRisk:        adjusted,
		Economic: model.EconomicImpact{
			PotentialLoss: potential,
			ExpectedLoss:  expected,
			// No refined temporal loss model yet; annualized defaults to expected
			AnnualizedLoss: expected,
		},
		CalculatedAt: now.UTC(),
	}
}

// threatProbability adjusts the threat's base probability for asset
// applicability, geography and seasonality, clamped to 1.0
func threatProbability(asset *model.Asset, threat *model.Threat, now time.Time) float64 {
	p := threat.BaseProbability

	// Partial applicability penalty when the asset type is outside the
	// threat's known-susceptible set
	if !threat.AppliesTo(asset.Type) {
		p *= 0.5
	}

	p *= threat.GeoRelevance.Multiplier()
	p *= threat.SeasonalMultiplierFor(now.Month())

	return math.Min(p, 1.0)
}

// aggregatedImpact is the valuation-weighted average of the vulnerability's
// per-dimension impact over the five MAGERIT dimensions. The asset valuation
// (0-10, normalized) is the weight; the vulnerability impact is the value.
// Without any valuation the impact defaults to 0.5 (neutral).
func aggregatedImpact(asset *model.Asset, vuln *model.Vulnerability) (float64, map[types.Dimension]float64) {
	dims := make(map[types.Dimension]float64, 5)
	for _, dim := range types.AllDimensions() {
		dims[dim] = vuln.DimensionImpact[dim]
	}

	if !asset.HasValuation() {
		return 0.5, dims
	}

	var weighted, totalWeight float64
	for _, dim := range types.AllDimensions() {
		weight := asset.NormalizedValuation(dim)
		weighted += weight * dims[dim]
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0, dims
	}
	return weighted / totalWeight, dims
}

// temporalFactor reflects how the vulnerability's exploitability evolves
// over time, capped at 2.0
func temporalFactor(vuln *model.Vulnerability, now time.Time) float64 {
	f := 1.0

	switch vuln.ExploitMaturity {
	case types.ExploitMaturityHigh:
		f += 0.3
	case types.ExploitMaturityFunctional:
		f += 0.2
	case types.ExploitMaturityProofOfConcept:
		f += 0.1
	}

	switch vuln.RemediationLevel {
	case types.RemediationUnavailable:
		f += 0.2
	case types.RemediationWorkaround:
		f += 0.1
	}

	if vuln.ReportConfidence == types.ConfidenceConfirmed {
		f += 0.1
	}

	if age := vuln.CVEAge(now); age >= 0 {
		if age <= 30 {
			f += 0.2
		} else if age <= 90 {
			f += 0.1
		}
	}

	return math.Min(f, 2.0)
}

// environmentalFactor reflects the asset's exposure and business
// criticality, clamped to [0.5, 1.5]
func environmentalFactor(asset *model.Asset) float64 {
	f := 1.0

	switch asset.Exposure {
	case types.ExposurePublic:
		f += 0.3
	case types.ExposurePartner:
		f += 0.2
	case types.ExposureRestricted:
		f -= 0.1
	}

	switch asset.Criticality {
	case types.CriticalityCritical:
		f += 0.2
	case types.CriticalityHigh:
		f += 0.1
	case types.CriticalityLow:
		f -= 0.1
	}

	return math.Max(0.5, math.Min(f, 1.5))
}
