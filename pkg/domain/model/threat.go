package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// SeasonalPattern describes a threat whose probability rises during specific
// months, e.g. phishing campaigns around fiscal year end.
type SeasonalPattern struct {
	PeakMonths []time.Month
	Multiplier float64
}

// Threat represents a MAGERIT threat source
type Threat struct {
	ID                   types.ThreatID
	Name                 string
	Description          string
	Category             string
	BaseProbability      float64
	SusceptibleAssetType []string
	GeoRelevance         types.GeoRelevance
	Seasonal             *SeasonalPattern
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks the threat's invariants
func (t *Threat) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid threat ID")
	}
	if t.Name == "" {
		return goerr.New("threat name is required", goerr.V("id", t.ID))
	}
	if t.BaseProbability < 0 || t.BaseProbability > 1 {
		return goerr.New("threat base probability must be between 0 and 1",
			goerr.V("id", t.ID), goerr.V("probability", t.BaseProbability))
	}
	if t.Seasonal != nil && t.Seasonal.Multiplier <= 0 {
		return goerr.New("seasonal multiplier must be positive",
			goerr.V("id", t.ID), goerr.V("multiplier", t.Seasonal.Multiplier))
	}
	return nil
}

// AppliesTo reports whether the given asset type is in the threat's
// known-susceptible set
func (t *Threat) AppliesTo(assetType string) bool {
	for _, at := range t.SusceptibleAssetType {
		if at == assetType {
			return true
		}
	}
	return false
}

// SeasonalMultiplierFor returns the seasonal probability multiplier for the
// given month, or 1.0 when the threat has no seasonal variation or the month
// is not a declared peak.
func (t *Threat) SeasonalMultiplierFor(month time.Month) float64 {
	if t.Seasonal == nil {
		return 1.0
	}
	for _, m := range t.Seasonal.PeakMonths {
		if m == month {
			return t.Seasonal.Multiplier
		}
	}
	return 1.0
}
