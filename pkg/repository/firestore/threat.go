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

type threatDocument struct {
	ID                   string    `firestore:"id"`
	Name                 string    `firestore:"name"`
	Description          string    `firestore:"description"`
	Category             string    `firestore:"category"`
	BaseProbability      float64   `firestore:"base_probability"`
	SusceptibleAssetType []string  `firestore:"susceptible_asset_type"`
	GeoRelevance         string    `firestore:"geo_relevance"`
	SeasonalPeakMonths   []int     `firestore:"seasonal_peak_months"`
	SeasonalMultiplier   float64   `firestore:"seasonal_multiplier"`
	CreatedAt            time.Time `firestore:"created_at"`
	UpdatedAt            time.Time `firestore:"updated_at"`
}

func toThreatDocument(t *model.Threat) *threatDocument {
	doc := &threatDocument{
		ID:                   t.ID.String(),
		Name:                 t.Name,
		Description:          t.Description,
		Category:             t.Category,
		BaseProbability:      t.BaseProbability,
		SusceptibleAssetType: t.SusceptibleAssetType,
		GeoRelevance:         t.GeoRelevance.String(),
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
	if t.Seasonal != nil {
		for _, m := range t.Seasonal.PeakMonths {
			doc.SeasonalPeakMonths = append(doc.SeasonalPeakMonths, int(m))
		}
		doc.SeasonalMultiplier = t.Seasonal.Multiplier
	}
	return doc
}

func (d *threatDocument) toModel() *model.Threat {
	threat := &model.Threat{
		ID:                   types.ThreatID(d.ID),
		Name:                 d.Name,
		Description:          d.Description,
		Category:             d.Category,
		BaseProbability:      d.BaseProbability,
		SusceptibleAssetType: d.SusceptibleAssetType,
		GeoRelevance:         types.GeoRelevance(d.GeoRelevance),
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if len(d.SeasonalPeakMonths) > 0 {
		seasonal := &model.SeasonalPattern{Multiplier: d.SeasonalMultiplier}
		for _, m := range d.SeasonalPeakMonths {
			seasonal.PeakMonths = append(seasonal.PeakMonths, time.Month(m))
		}
		threat.Seasonal = seasonal
	}
	return threat
}

type threatRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newThreatRepository(client *firestore.Client) *threatRepository {
	return &threatRepository{client: client}
}

func (r *threatRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_threats"
	}
	return "threats"
}

func (r *threatRepository) Put(ctx context.Context, threat *model.Threat) error {
	if err := threat.Validate(); err != nil {
		return goerr.Wrap(err, "invalid threat")
	}

	doc := toThreatDocument(threat)
	now := time.Now().UTC()
	docRef := r.client.Collection(r.collection()).Doc(doc.ID)

	existing, err := docRef.Get(ctx)
	switch {
	case err == nil:
		var prev threatDocument
		if err := existing.DataTo(&prev); err != nil {
			return goerr.Wrap(err, "failed to unmarshal threat", goerr.V("id", doc.ID))
		}
		doc.CreatedAt = prev.CreatedAt
	case status.Code(err) == codes.NotFound:
		doc.CreatedAt = now
	default:
		return goerr.Wrap(err, "failed to get threat", goerr.V("id", doc.ID))
	}
	doc.UpdatedAt = now

	if _, err := docRef.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put threat", goerr.V("id", doc.ID))
	}
	return nil
}

func (r *threatRepository) Get(ctx context.Context, id types.ThreatID) (*model.Threat, error) {
	doc, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "threat not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get threat", goerr.V("id", id))
	}

	var threatDoc threatDocument
	if err := doc.DataTo(&threatDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal threat", goerr.V("id", id))
	}

	return threatDoc.toModel(), nil
}
