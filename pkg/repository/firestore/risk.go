package firestore

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type calculationDocument struct {
	ThreatProbability   float64            `firestore:"threat_probability"`
	VulnerabilityLevel  float64            `firestore:"vulnerability_level"`
	DimensionImpact     map[string]float64 `firestore:"dimension_impact"`
	AggregatedImpact    float64            `firestore:"aggregated_impact"`
	TemporalFactor      float64            `firestore:"temporal_factor"`
	EnvironmentalFactor float64            `firestore:"environmental_factor"`
	BaseRisk            float64            `firestore:"base_risk"`
	AdjustedRisk        float64            `firestore:"adjusted_risk"`
	PotentialLoss       float64            `firestore:"potential_loss"`
	ExpectedLoss        float64            `firestore:"expected_loss"`
	AnnualizedLoss      float64            `firestore:"annualized_loss"`
	CalculatedAt        time.Time          `firestore:"calculated_at"`
}

type quantitativeDocument struct {
	MonteCarloLower float64    `firestore:"monte_carlo_lower"`
	MonteCarloUpper float64    `firestore:"monte_carlo_upper"`
	HasMonteCarlo   bool       `firestore:"has_monte_carlo"`
	SimulatedMean   float64    `firestore:"simulated_mean"`
	SimulatedStdDev float64    `firestore:"simulated_stddev"`
	ValueAtRisk     float64    `firestore:"value_at_risk"`
	LastSimulatedAt *time.Time `firestore:"last_simulated_at"`
}

type appliedControlDocument struct {
	Name          string  `firestore:"name"`
	Effectiveness float64 `firestore:"effectiveness"`
}

type treatmentDocument struct {
	Strategy     string                   `firestore:"strategy"`
	Status       string                   `firestore:"status"`
	Controls     []appliedControlDocument `firestore:"controls"`
	ResidualRisk float64                  `firestore:"residual_risk"`
	UpdatedAt    time.Time                `firestore:"updated_at"`
}

type riskDocument struct {
	ID               int64                `firestore:"id"`
	OrganizationID   string               `firestore:"organization_id"`
	AssetID          string               `firestore:"asset_id"`
	ThreatID         string               `firestore:"threat_id"`
	VulnerabilityID  string               `firestore:"vulnerability_id"`
	Name             string               `firestore:"name"`
	Calculation      calculationDocument  `firestore:"calculation"`
	RiskLevel        string               `firestore:"risk_level"`
	Category         string               `firestore:"category"`
	BusinessFunction string               `firestore:"business_function"`
	ProbabilityLevel int                  `firestore:"probability_level"`
	ImpactLevel      int                  `firestore:"impact_level"`
	Position         string               `firestore:"position"`
	RiskScore        int                  `firestore:"risk_score"`
	Quantitative     quantitativeDocument `firestore:"quantitative"`
	Treatment        *treatmentDocument   `firestore:"treatment"`
	Revision         int64                `firestore:"revision"`
	CreatedBy        string               `firestore:"created_by"`
	CreatedAt        time.Time            `firestore:"created_at"`
	UpdatedAt        time.Time            `firestore:"updated_at"`
}

func toRiskDocument(r *model.Risk) *riskDocument {
	doc := &riskDocument{
		ID:              r.ID,
		OrganizationID:  r.OrganizationID.String(),
		AssetID:         r.AssetID.String(),
		ThreatID:        r.ThreatID.String(),
		VulnerabilityID: r.VulnerabilityID.String(),
		Name:            r.Name,
		Calculation: calculationDocument{
			ThreatProbability:   r.Calculation.ThreatProbability,
			VulnerabilityLevel:  r.Calculation.VulnerabilityLevel,
			AggregatedImpact:    r.Calculation.AggregatedImpact,
			TemporalFactor:      r.Calculation.TemporalFactor,
			EnvironmentalFactor: r.Calculation.EnvironmentalFactor,
			BaseRisk:            r.Calculation.BaseRisk,
			AdjustedRisk:        r.Calculation.AdjustedRisk,
			PotentialLoss:       r.Calculation.Economic.PotentialLoss,
			ExpectedLoss:        r.Calculation.Economic.ExpectedLoss,
			AnnualizedLoss:      r.Calculation.Economic.AnnualizedLoss,
			CalculatedAt:        r.Calculation.CalculatedAt,
		},
		RiskLevel:        r.Classification.RiskLevel.String(),
		Category:         r.Classification.Category,
		BusinessFunction: r.Classification.BusinessFunction,
		ProbabilityLevel: r.MatrixPosition.ProbabilityLevel,
		ImpactLevel:      r.MatrixPosition.ImpactLevel,
		Position:         r.MatrixPosition.Position,
		RiskScore:        r.MatrixPosition.RiskScore,
		Quantitative: quantitativeDocument{
			SimulatedMean:   r.Quantitative.SimulatedMean,
			SimulatedStdDev: r.Quantitative.SimulatedStdDev,
			ValueAtRisk:     r.Quantitative.ValueAtRisk,
			LastSimulatedAt: r.Quantitative.LastSimulatedAt,
		},
		Revision:  r.Revision,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Calculation.DimensionImpact != nil {
		doc.Calculation.DimensionImpact = make(map[string]float64, len(r.Calculation.DimensionImpact))
		for dim, v := range r.Calculation.DimensionImpact {
			doc.Calculation.DimensionImpact[dim.String()] = v
		}
	}
	if r.Quantitative.MonteCarlo != nil {
		doc.Quantitative.HasMonteCarlo = true
		doc.Quantitative.MonteCarloLower = r.Quantitative.MonteCarlo.Lower
		doc.Quantitative.MonteCarloUpper = r.Quantitative.MonteCarlo.Upper
	}
	if r.Treatment != nil {
		treatment := &treatmentDocument{
			Strategy:     r.Treatment.Strategy.String(),
			Status:       r.Treatment.Status.String(),
			ResidualRisk: r.Treatment.ResidualRisk,
			UpdatedAt:    r.Treatment.UpdatedAt,
		}
		for _, c := range r.Treatment.Controls {
			treatment.Controls = append(treatment.Controls, appliedControlDocument{
				Name:          c.Name,
				Effectiveness: c.Effectiveness,
			})
		}
		doc.Treatment = treatment
	}
	return doc
}

func (d *riskDocument) toModel() *model.Risk {
	risk := &model.Risk{
		ID:              d.ID,
		OrganizationID:  types.OrgID(d.OrganizationID),
		AssetID:         types.AssetID(d.AssetID),
		ThreatID:        types.ThreatID(d.ThreatID),
		VulnerabilityID: types.VulnerabilityID(d.VulnerabilityID),
		Name:            d.Name,
		Calculation: model.Calculation{
			ThreatProbability:   d.Calculation.ThreatProbability,
			VulnerabilityLevel:  d.Calculation.VulnerabilityLevel,
			AggregatedImpact:    d.Calculation.AggregatedImpact,
			TemporalFactor:      d.Calculation.TemporalFactor,
			EnvironmentalFactor: d.Calculation.EnvironmentalFactor,
			BaseRisk:            d.Calculation.BaseRisk,
			AdjustedRisk:        d.Calculation.AdjustedRisk,
			Economic: model.EconomicImpact{
				PotentialLoss:  d.Calculation.PotentialLoss,
				ExpectedLoss:   d.Calculation.ExpectedLoss,
				AnnualizedLoss: d.Calculation.AnnualizedLoss,
			},
			CalculatedAt: d.Calculation.CalculatedAt,
		},
		Classification: model.Classification{
			RiskLevel:        types.RiskLevel(d.RiskLevel),
			Category:         d.Category,
			BusinessFunction: d.BusinessFunction,
		},
		MatrixPosition: model.MatrixPosition{
			ProbabilityLevel: d.ProbabilityLevel,
			ImpactLevel:      d.ImpactLevel,
			Position:         d.Position,
			RiskScore:        d.RiskScore,
		},
		Quantitative: model.Quantitative{
			SimulatedMean:   d.Quantitative.SimulatedMean,
			SimulatedStdDev: d.Quantitative.SimulatedStdDev,
			ValueAtRisk:     d.Quantitative.ValueAtRisk,
			LastSimulatedAt: d.Quantitative.LastSimulatedAt,
		},
		Revision:  d.Revision,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Calculation.DimensionImpact != nil {
		risk.Calculation.DimensionImpact = make(map[types.Dimension]float64, len(d.Calculation.DimensionImpact))
		for dim, v := range d.Calculation.DimensionImpact {
			risk.Calculation.DimensionImpact[types.Dimension(dim)] = v
		}
	}
	if d.Quantitative.HasMonteCarlo {
		risk.Quantitative.MonteCarlo = &model.ConfidenceInterval{
			Lower: d.Quantitative.MonteCarloLower,
			Upper: d.Quantitative.MonteCarloUpper,
		}
	}
	if d.Treatment != nil {
		treatment := &model.Treatment{
			Strategy:     types.TreatmentStrategy(d.Treatment.Strategy),
			Status:       types.TreatmentStatus(d.Treatment.Status),
			ResidualRisk: d.Treatment.ResidualRisk,
			UpdatedAt:    d.Treatment.UpdatedAt,
		}
		for _, c := range d.Treatment.Controls {
			treatment.Controls = append(treatment.Controls, model.AppliedControl{
				Name:          c.Name,
				Effectiveness: c.Effectiveness,
			})
		}
		risk.Treatment = treatment
	}
	return risk
}

type riskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRiskRepository(client *firestore.Client) *riskRepository {
	return &riskRepository{client: client}
}

func (r *riskRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_risks"
	}
	return "risks"
}

func (r *riskRepository) countersCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

type counterDocument struct {
	Value int64 `firestore:"value"`
}

// getNextID allocates the next sequential risk ID via a counter document
// transaction
func (r *riskRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.countersCollection()).Doc("risks")

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get risk counter")
			}
			nextID = 1
			return tx.Set(counterRef, counterDocument{Value: nextID})
		}

		var counter counterDocument
		if err := doc.DataTo(&counter); err != nil {
			return goerr.Wrap(err, "failed to unmarshal risk counter")
		}
		nextID = counter.Value + 1
		return tx.Set(counterRef, counterDocument{Value: nextID})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to allocate risk ID")
	}

	return nextID, nil
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	id, err := r.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := toRiskDocument(risk)
	doc.ID = id
	doc.Revision = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docRef := r.client.Collection(r.collection()).Doc(strconv.FormatInt(id, 10))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create risk", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	doc, err := r.client.Collection(r.collection()).Doc(strconv.FormatInt(id, 10)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}

	var riskDoc riskDocument
	if err := doc.DataTo(&riskDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", id))
	}

	return riskDoc.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.Risk, error) {
	iter := r.client.Collection(r.collection()).
		Where("organization_id", "==", orgID.String()).
		Documents(ctx)
	defer iter.Stop()

	var risks []*model.Risk
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risks")
		}

		var riskDoc riskDocument
		if err := doc.DataTo(&riskDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk")
		}
		risks = append(risks, riskDoc.toModel())
	}

	return risks, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	docRef := r.client.Collection(r.collection()).Doc(strconv.FormatInt(risk.ID, 10))

	doc := toRiskDocument(risk)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stored, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", risk.ID))
			}
			return goerr.Wrap(err, "failed to get risk", goerr.V("id", risk.ID))
		}

		var prev riskDocument
		if err := stored.DataTo(&prev); err != nil {
			return goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", risk.ID))
		}

		if prev.Revision != risk.Revision {
			return goerr.Wrap(ErrRevisionMismatch, "risk was modified concurrently",
				goerr.V("id", risk.ID),
				goerr.V("stored", prev.Revision),
				goerr.V("given", risk.Revision),
			)
		}

		doc.CreatedAt = prev.CreatedAt
		doc.Revision = prev.Revision + 1
		doc.UpdatedAt = time.Now().UTC()
		return tx.Set(docRef, doc)
	})
	if err != nil {
		return nil, err
	}

	return doc.toModel(), nil
}

func (r *riskRepository) Delete(ctx context.Context, id int64) error {
	docRef := r.client.Collection(r.collection()).Doc(strconv.FormatInt(id, 10))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete risk", goerr.V("id", id))
	}
	return nil
}
