package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// Asset represents an organizational asset subject to risk analysis.
// Valuation holds the MAGERIT per-dimension valuation on a 0-10 scale.
type Asset struct {
	ID               types.AssetID
	OrganizationID   types.OrgID
	Name             string
	Type             string
	BusinessFunction string
	Criticality      types.Criticality
	Exposure         types.Exposure
	EconomicValue    float64
	Valuation        map[types.Dimension]float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the asset's invariants
func (a *Asset) Validate() error {
	if err := a.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid asset ID")
	}
	if a.Name == "" {
		return goerr.New("asset name is required", goerr.V("id", a.ID))
	}
	if a.EconomicValue < 0 {
		return goerr.New("asset economic value cannot be negative",
			goerr.V("id", a.ID), goerr.V("value", a.EconomicValue))
	}
	for dim, v := range a.Valuation {
		if !dim.IsValid() {
			return goerr.New("invalid valuation dimension", goerr.V("id", a.ID), goerr.V("dimension", dim))
		}
		if v < 0 || v > 10 {
			return goerr.New("asset valuation must be between 0 and 10",
				goerr.V("id", a.ID), goerr.V("dimension", dim), goerr.V("value", v))
		}
	}
	return nil
}

// NormalizedValuation returns the valuation for a dimension scaled to [0, 1].
// Missing dimensions return 0.
func (a *Asset) NormalizedValuation(dim types.Dimension) float64 {
	return a.Valuation[dim] / 10.0
}

// HasValuation reports whether the asset carries any dimension valuation
func (a *Asset) HasValuation() bool {
	return len(a.Valuation) > 0
}
