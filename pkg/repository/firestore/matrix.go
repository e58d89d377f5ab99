package firestore

import (
	"context"
	"math"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type scaleEntryDocument struct {
	Level       int     `firestore:"level"`
	Name        string  `firestore:"name"`
	Min         float64 `firestore:"min"`
	Max         float64 `firestore:"max"`
	Unbounded   bool    `firestore:"unbounded"`
	Description string  `firestore:"description"`
}

type matrixCellDocument struct {
	ProbabilityLevel int    `firestore:"probability_level"`
	ImpactLevel      int    `firestore:"impact_level"`
	RiskLevel        string `firestore:"risk_level"`
	RiskScore        int    `firestore:"risk_score"`
	Color            string `firestore:"color"`
	Action           string `firestore:"action"`
}

type toleranceBandDocument struct {
	MaxScore int      `firestore:"max_score"`
	Levels   []string `firestore:"levels"`
}

type escalationRuleDocument struct {
	Name       string   `firestore:"name"`
	RiskLevels []string `firestore:"risk_levels"`
	MinScore   *int     `firestore:"min_score"`
	MaxScore   *int     `firestore:"max_score"`
	Actions    []string `firestore:"actions"`
}

type matrixDocument struct {
	ID                string                   `firestore:"id"`
	OrganizationID    string                   `firestore:"organization_id"`
	Name              string                   `firestore:"name"`
	Version           int                      `firestore:"version"`
	ProbabilityLevels int                      `firestore:"probability_levels"`
	ImpactLevels      int                      `firestore:"impact_levels"`
	ProbabilityScale  []scaleEntryDocument     `firestore:"probability_scale"`
	ImpactScale       []scaleEntryDocument     `firestore:"impact_scale"`
	Cells             []matrixCellDocument     `firestore:"cells"`
	Acceptable        toleranceBandDocument    `firestore:"acceptable"`
	Tolerable         toleranceBandDocument    `firestore:"tolerable"`
	Unacceptable      toleranceBandDocument    `firestore:"unacceptable"`
	EscalationRules   []escalationRuleDocument `firestore:"escalation_rules"`
	IsDefault         bool                     `firestore:"is_default"`
	IsActive          bool                     `firestore:"is_active"`
	CreatedAt         time.Time                `firestore:"created_at"`
	UpdatedAt         time.Time                `firestore:"updated_at"`
}

// Unbounded scale tops are flagged instead of stored as +Inf so the document
// stays portable across Firestore export tooling.
func toScaleEntryDocuments(entries []model.ScaleEntry) []scaleEntryDocument {
	docs := make([]scaleEntryDocument, 0, len(entries))
	for _, e := range entries {
		doc := scaleEntryDocument{
			Level:       e.Level,
			Name:        e.Name,
			Min:         e.Min,
			Max:         e.Max,
			Description: e.Description,
		}
		if math.IsInf(e.Max, 1) {
			doc.Max = 0
			doc.Unbounded = true
		}
		docs = append(docs, doc)
	}
	return docs
}

func toScaleEntries(docs []scaleEntryDocument) []model.ScaleEntry {
	entries := make([]model.ScaleEntry, 0, len(docs))
	for _, d := range docs {
		e := model.ScaleEntry{
			Level:       d.Level,
			Name:        d.Name,
			Min:         d.Min,
			Max:         d.Max,
			Description: d.Description,
		}
		if d.Unbounded {
			e.Max = math.Inf(1)
		}
		entries = append(entries, e)
	}
	return entries
}

func toToleranceBandDocument(b model.ToleranceBand) toleranceBandDocument {
	doc := toleranceBandDocument{MaxScore: b.MaxScore}
	for _, level := range b.Levels {
		doc.Levels = append(doc.Levels, level.String())
	}
	return doc
}

func (d toleranceBandDocument) toModel() model.ToleranceBand {
	band := model.ToleranceBand{MaxScore: d.MaxScore}
	for _, level := range d.Levels {
		band.Levels = append(band.Levels, types.RiskLevel(level))
	}
	return band
}

func toMatrixDocument(m *model.RiskMatrix) *matrixDocument {
	doc := &matrixDocument{
		ID:                m.ID.String(),
		OrganizationID:    m.OrganizationID.String(),
		Name:              m.Name,
		Version:           m.Version,
		ProbabilityLevels: m.ProbabilityLevels,
		ImpactLevels:      m.ImpactLevels,
		ProbabilityScale:  toScaleEntryDocuments(m.ProbabilityScale),
		ImpactScale:       toScaleEntryDocuments(m.ImpactScale),
		Acceptable:        toToleranceBandDocument(m.Tolerance.Acceptable),
		Tolerable:         toToleranceBandDocument(m.Tolerance.Tolerable),
		Unacceptable:      toToleranceBandDocument(m.Tolerance.Unacceptable),
		IsDefault:         m.IsDefault,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	for _, cell := range m.Cells {
		doc.Cells = append(doc.Cells, matrixCellDocument{
			ProbabilityLevel: cell.ProbabilityLevel,
			ImpactLevel:      cell.ImpactLevel,
			RiskLevel:        cell.RiskLevel.String(),
			RiskScore:        cell.RiskScore,
			Color:            cell.Color,
			Action:           cell.Action.String(),
		})
	}
	for _, rule := range m.EscalationRules {
		ruleDoc := escalationRuleDocument{
			Name:     rule.Name,
			MinScore: rule.Condition.MinScore,
			MaxScore: rule.Condition.MaxScore,
			Actions:  rule.Actions,
		}
		for _, level := range rule.Condition.RiskLevels {
			ruleDoc.RiskLevels = append(ruleDoc.RiskLevels, level.String())
		}
		doc.EscalationRules = append(doc.EscalationRules, ruleDoc)
	}
	return doc
}

func (d *matrixDocument) toModel() *model.RiskMatrix {
	m := &model.RiskMatrix{
		ID:                types.MatrixID(d.ID),
		OrganizationID:    types.OrgID(d.OrganizationID),
		Name:              d.Name,
		Version:           d.Version,
		ProbabilityLevels: d.ProbabilityLevels,
		ImpactLevels:      d.ImpactLevels,
		ProbabilityScale:  toScaleEntries(d.ProbabilityScale),
		ImpactScale:       toScaleEntries(d.ImpactScale),
		Tolerance: model.ToleranceBands{
			Acceptable:   d.Acceptable.toModel(),
			Tolerable:    d.Tolerable.toModel(),
			Unacceptable: d.Unacceptable.toModel(),
		},
		IsDefault: d.IsDefault,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, cell := range d.Cells {
		m.Cells = append(m.Cells, model.MatrixCell{
			ProbabilityLevel: cell.ProbabilityLevel,
			ImpactLevel:      cell.ImpactLevel,
			RiskLevel:        types.RiskLevel(cell.RiskLevel),
			RiskScore:        cell.RiskScore,
			Color:            cell.Color,
			Action:           types.RecommendedAction(cell.Action),
		})
	}
	for _, ruleDoc := range d.EscalationRules {
		rule := model.EscalationRule{
			Name: ruleDoc.Name,
			Condition: model.EscalationCondition{
				MinScore: ruleDoc.MinScore,
				MaxScore: ruleDoc.MaxScore,
			},
			Actions: ruleDoc.Actions,
		}
		for _, level := range ruleDoc.RiskLevels {
			rule.Condition.RiskLevels = append(rule.Condition.RiskLevels, types.RiskLevel(level))
		}
		m.EscalationRules = append(m.EscalationRules, rule)
	}
	return m
}

type matrixRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMatrixRepository(client *firestore.Client) *matrixRepository {
	return &matrixRepository{client: client}
}

func (r *matrixRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_matrices"
	}
	return "matrices"
}

func (r *matrixRepository) Create(ctx context.Context, matrix *model.RiskMatrix) (*model.RiskMatrix, error) {
	doc := toMatrixDocument(matrix)
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docRef := r.client.Collection(r.collection()).Doc(doc.ID)

	// Clearing a previous default and writing the new matrix happen in one
	// transaction so the default slot stays unique.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err == nil {
			return goerr.New("matrix already exists", goerr.V("id", doc.ID))
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get matrix", goerr.V("id", doc.ID))
		}

		if doc.IsDefault {
			defaults, err := tx.Documents(r.client.Collection(r.collection()).
				Where("organization_id", "==", doc.OrganizationID).
				Where("is_default", "==", true)).GetAll()
			if err != nil {
				return goerr.Wrap(err, "failed to query default matrices")
			}
			for _, snap := range defaults {
				if err := tx.Update(snap.Ref, []firestore.Update{
					{Path: "is_default", Value: false},
					{Path: "updated_at", Value: now},
				}); err != nil {
					return goerr.Wrap(err, "failed to clear previous default")
				}
			}
		}

		return tx.Set(docRef, doc)
	})
	if err != nil {
		return nil, err
	}

	return doc.toModel(), nil
}

func (r *matrixRepository) Get(ctx context.Context, id types.MatrixID) (*model.RiskMatrix, error) {
	doc, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "matrix not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get matrix", goerr.V("id", id))
	}

	var matrixDoc matrixDocument
	if err := doc.DataTo(&matrixDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal matrix", goerr.V("id", id))
	}

	return matrixDoc.toModel(), nil
}

func (r *matrixRepository) GetDefault(ctx context.Context, orgID types.OrgID) (*model.RiskMatrix, error) {
	iter := r.client.Collection(r.collection()).
		Where("organization_id", "==", orgID.String()).
		Where("is_default", "==", true).
		Where("is_active", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "no default matrix for organization", goerr.V("orgID", orgID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query default matrix", goerr.V("orgID", orgID))
	}

	var matrixDoc matrixDocument
	if err := doc.DataTo(&matrixDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal matrix", goerr.V("orgID", orgID))
	}

	return matrixDoc.toModel(), nil
}

func (r *matrixRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.RiskMatrix, error) {
	iter := r.client.Collection(r.collection()).
		Where("organization_id", "==", orgID.String()).
		Documents(ctx)
	defer iter.Stop()

	var matrices []*model.RiskMatrix
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate matrices")
		}

		var matrixDoc matrixDocument
		if err := doc.DataTo(&matrixDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal matrix")
		}
		matrices = append(matrices, matrixDoc.toModel())
	}

	return matrices, nil
}

func (r *matrixRepository) SetDefault(ctx context.Context, orgID types.OrgID, id types.MatrixID) error {
	docRef := r.client.Collection(r.collection()).Doc(id.String())

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		target, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "matrix not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get matrix", goerr.V("id", id))
		}

		var targetDoc matrixDocument
		if err := target.DataTo(&targetDoc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal matrix", goerr.V("id", id))
		}
		if targetDoc.OrganizationID != orgID.String() {
			return goerr.New("matrix belongs to another organization",
				goerr.V("id", id), goerr.V("orgID", orgID))
		}

		defaults, err := tx.Documents(r.client.Collection(r.collection()).
			Where("organization_id", "==", orgID.String()).
			Where("is_default", "==", true)).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to query default matrices", goerr.V("orgID", orgID))
		}

		now := time.Now().UTC()
		for _, snap := range defaults {
			if snap.Ref.ID == docRef.ID {
				continue
			}
			if err := tx.Update(snap.Ref, []firestore.Update{
				{Path: "is_default", Value: false},
				{Path: "updated_at", Value: now},
			}); err != nil {
				return goerr.Wrap(err, "failed to clear previous default")
			}
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "is_default", Value: true},
			{Path: "is_active", Value: true},
			{Path: "updated_at", Value: now},
		})
	})
}
