package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type vulnerabilityDocument struct {
	ID               string             `firestore:"id"`
	AssetID          string             `firestore:"asset_id"`
	Name             string             `firestore:"name"`
	Level            float64            `firestore:"level"`
	DimensionImpact  map[string]float64 `firestore:"dimension_impact"`
	ExploitMaturity  string             `firestore:"exploit_maturity"`
	RemediationLevel string             `firestore:"remediation_level"`
	ReportConfidence string             `firestore:"report_confidence"`
	CVEID            string             `firestore:"cve_id"`
	CVEPublishedAt   *time.Time         `firestore:"cve_published_at"`
	CreatedAt        time.Time          `firestore:"created_at"`
	UpdatedAt        time.Time          `firestore:"updated_at"`
}

func toVulnerabilityDocument(v *model.Vulnerability) *vulnerabilityDocument {
	doc := &vulnerabilityDocument{
		ID:               v.ID.String(),
		AssetID:          v.AssetID.String(),
		Name:             v.Name,
		Level:            v.Level,
		ExploitMaturity:  v.ExploitMaturity.String(),
		RemediationLevel: v.RemediationLevel.String(),
		ReportConfidence: v.ReportConfidence.String(),
		CVEID:            v.CVEID,
		CVEPublishedAt:   v.CVEPublishedAt,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if v.DimensionImpact != nil {
		doc.DimensionImpact = make(map[string]float64, len(v.DimensionImpact))
		for dim, impact := range v.DimensionImpact {
			doc.DimensionImpact[dim.String()] = impact
		}
	}
	return doc
}

func (d *vulnerabilityDocument) toModel() *model.Vulnerability {
	vuln := &model.Vulnerability{
		ID:               types.VulnerabilityID(d.ID),
		AssetID:          types.AssetID(d.AssetID),
		Name:             d.Name,
		Level:            d.Level,
		ExploitMaturity:  types.ExploitMaturity(d.ExploitMaturity),
		RemediationLevel: types.RemediationLevel(d.RemediationLevel),
		ReportConfidence: types.ReportConfidence(d.ReportConfidence),
		CVEID:            d.CVEID,
		CVEPublishedAt:   d.CVEPublishedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.DimensionImpact != nil {
		vuln.DimensionImpact = make(map[types.Dimension]float64, len(d.DimensionImpact))
		for dim, impact := range d.DimensionImpact {
			vuln.DimensionImpact[types.Dimension(dim)] = impact
		}
	}
	return vuln
}

type vulnerabilityRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newVulnerabilityRepository(client *firestore.Client) *vulnerabilityRepository {
	return &vulnerabilityRepository{client: client}
}

func (r *vulnerabilityRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_vulnerabilities"
	}
	return "vulnerabilities"
}

func (r *vulnerabilityRepository) Put(ctx context.Context, vuln *model.Vulnerability) error {
	if err := vuln.Validate(); err != nil {
		return goerr.Wrap(err, "invalid vulnerability")
	}

	doc := toVulnerabilityDocument(vuln)
	now := time.Now().UTC()
	docRef := r.client.Collection(r.collection()).Doc(doc.ID)

	existing, err := docRef.Get(ctx)
	switch {
	case err == nil:
		var prev vulnerabilityDocument
		if err := existing.DataTo(&prev); err != nil {
			return goerr.Wrap(err, "failed to unmarshal vulnerability", goerr.V("id", doc.ID))
		}
		doc.CreatedAt = prev.CreatedAt
	case status.Code(err) == codes.NotFound:
		doc.CreatedAt = now
	default:
		return goerr.Wrap(err, "failed to get vulnerability", goerr.V("id", doc.ID))
	}
	doc.UpdatedAt = now

	if _, err := docRef.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put vulnerability", goerr.V("id", doc.ID))
	}
	return nil
}

func (r *vulnerabilityRepository) Get(ctx context.Context, id types.VulnerabilityID) (*model.Vulnerability, error) {
	doc, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "vulnerability not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get vulnerability", goerr.V("id", id))
	}

	var vulnDoc vulnerabilityDocument
	if err := doc.DataTo(&vulnDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal vulnerability", goerr.V("id", id))
	}

	return vulnDoc.toModel(), nil
}
