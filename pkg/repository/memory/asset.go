package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

type assetRepository struct {
	mu     sync.RWMutex
	assets map[types.AssetID]*model.Asset
}

func newAssetRepository() *assetRepository {
	return &assetRepository{
		assets: make(map[types.AssetID]*model.Asset),
	}
}

// cloneAsset returns a deep copy to prevent external modification
func cloneAsset(a *model.Asset) *model.Asset {
	copied := *a
	if a.Valuation != nil {
		copied.Valuation = make(map[types.Dimension]float64, len(a.Valuation))
		for dim, v := range a.Valuation {
			copied.Valuation[dim] = v
		}
	}
	return &copied
}

func (r *assetRepository) Put(ctx context.Context, asset *model.Asset) error {
	if err := asset.Validate(); err != nil {
		return goerr.Wrap(err, "invalid asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneAsset(asset)
	now := time.Now().UTC()
	if existing, ok := r.assets[asset.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.assets[asset.ID] = stored
	return nil
}

func (r *assetRepository) Get(ctx context.Context, id types.AssetID) (*model.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "asset not found", goerr.V("id", id))
	}

	return cloneAsset(asset), nil
}

func (r *assetRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := make([]*model.Asset, 0, len(r.assets))
	for _, asset := range r.assets {
		if asset.OrganizationID == orgID {
			assets = append(assets, cloneAsset(asset))
		}
	}

	return assets, nil
}
