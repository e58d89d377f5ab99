package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type assetDocument struct {
	ID               string             `firestore:"id"`
	OrganizationID   string             `firestore:"organization_id"`
	Name             string             `firestore:"name"`
	Type             string             `firestore:"type"`
	BusinessFunction string             `firestore:"business_function"`
	Criticality      string             `firestore:"criticality"`
	Exposure         string             `firestore:"exposure"`
	EconomicValue    float64            `firestore:"economic_value"`
	Valuation        map[string]float64 `firestore:"valuation"`
	CreatedAt        time.Time          `firestore:"created_at"`
	UpdatedAt        time.Time          `firestore:"updated_at"`
}

func toAssetDocument(a *model.Asset) *assetDocument {
	doc := &assetDocument{
		ID:               a.ID.String(),
		OrganizationID:   a.OrganizationID.String(),
		Name:             a.Name,
		Type:             a.Type,
		BusinessFunction: a.BusinessFunction,
		Criticality:      a.Criticality.String(),
		Exposure:         a.Exposure.String(),
		EconomicValue:    a.EconomicValue,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Valuation != nil {
		doc.Valuation = make(map[string]float64, len(a.Valuation))
		for dim, v := range a.Valuation {
			doc.Valuation[dim.String()] = v
		}
	}
	return doc
}

func (d *assetDocument) toModel() *model.Asset {
	asset := &model.Asset{
		ID:               types.AssetID(d.ID),
		OrganizationID:   types.OrgID(d.OrganizationID),
		Name:             d.Name,
		Type:             d.Type,
		BusinessFunction: d.BusinessFunction,
		Criticality:      types.Criticality(d.Criticality),
		Exposure:         types.Exposure(d.Exposure),
		EconomicValue:    d.EconomicValue,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Valuation != nil {
		asset.Valuation = make(map[types.Dimension]float64, len(d.Valuation))
		for dim, v := range d.Valuation {
			asset.Valuation[types.Dimension(dim)] = v
		}
	}
	return asset
}

type assetRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAssetRepository(client *firestore.Client) *assetRepository {
	return &assetRepository{client: client}
}

func (r *assetRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_assets"
	}
	return "assets"
}

func (r *assetRepository) Put(ctx context.Context, asset *model.Asset) error {
	if err := asset.Validate(); err != nil {
		return goerr.Wrap(err, "invalid asset")
	}

	doc := toAssetDocument(asset)
	now := time.Now().UTC()
	docRef := r.client.Collection(r.collection()).Doc(doc.ID)

	existing, err := docRef.Get(ctx)
	switch {
	case err == nil:
		var prev assetDocument
		if err := existing.DataTo(&prev); err != nil {
			return goerr.Wrap(err, "failed to unmarshal asset", goerr.V("id", doc.ID))
		}
		doc.CreatedAt = prev.CreatedAt
	case status.Code(err) == codes.NotFound:
		doc.CreatedAt = now
	default:
		return goerr.Wrap(err, "failed to get asset", goerr.V("id", doc.ID))
	}
	doc.UpdatedAt = now

	if _, err := docRef.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put asset", goerr.V("id", doc.ID))
	}
	return nil
}

func (r *assetRepository) Get(ctx context.Context, id types.AssetID) (*model.Asset, error) {
	doc, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "asset not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get asset", goerr.V("id", id))
	}

	var assetDoc assetDocument
	if err := doc.DataTo(&assetDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal asset", goerr.V("id", id))
	}

	return assetDoc.toModel(), nil
}

func (r *assetRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.Asset, error) {
	iter := r.client.Collection(r.collection()).
		Where("organization_id", "==", orgID.String()).
		Documents(ctx)
	defer iter.Stop()

	var assets []*model.Asset
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assets")
		}

		var assetDoc assetDocument
		if err := doc.DataTo(&assetDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal asset")
		}
		assets = append(assets, assetDoc.toModel())
	}

	return assets, nil
}
