package interfaces

import (
	"context"

	"github.com/secmon-lab/moirai/pkg/domain/model"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// AssetRepository provides entity snapshots for assets. The engine only
// reads; administrative CRUD lives outside the core.
type AssetRepository interface {
	// Put stores an asset snapshot
	Put(ctx context.Context, asset *model.Asset) error

	// Get retrieves an asset by ID
	Get(ctx context.Context, id types.AssetID) (*model.Asset, error)

	// List retrieves all assets of an organization
	List(ctx context.Context, orgID types.OrgID) ([]*model.Asset, error)
}

// ThreatRepository provides entity snapshots for threats
type ThreatRepository interface {
	// Put stores a threat snapshot
	Put(ctx context.Context, threat *model.Threat) error

	// Get retrieves a threat by ID
	Get(ctx context.Context, id types.ThreatID) (*model.Threat, error)
}

// VulnerabilityRepository provides entity snapshots for vulnerabilities
type VulnerabilityRepository interface {
	// Put stores a vulnerability snapshot
	Put(ctx context.Context, vuln *model.Vulnerability) error

	// Get retrieves a vulnerability by ID
	Get(ctx context.Context, id types.VulnerabilityID) (*model.Vulnerability, error)
}
