package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

// Vulnerability represents a weakness of a specific asset. DimensionImpact
// holds the per-dimension impact in [0, 1] used for aggregated impact.
type Vulnerability struct {
	ID               types.VulnerabilityID
	AssetID          types.AssetID
	Name             string
	Level            float64
	DimensionImpact  map[types.Dimension]float64
	ExploitMaturity  types.ExploitMaturity
	RemediationLevel types.RemediationLevel
	ReportConfidence types.ReportConfidence
	CVEID            string
	CVEPublishedAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the vulnerability's invariants
func (v *Vulnerability) Validate() error {
	if err := v.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid vulnerability ID")
	}
	if err := v.AssetID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid asset reference")
	}
	if v.Name == "" {
		return goerr.New("vulnerability name is required", goerr.V("id", v.ID))
	}
	if v.Level < 0 || v.Level > 1 {
		return goerr.New("vulnerability level must be between 0 and 1",
			goerr.V("id", v.ID), goerr.V("level", v.Level))
	}
	for dim, impact := range v.DimensionImpact {
		if !dim.IsValid() {
			return goerr.New("invalid impact dimension", goerr.V("id", v.ID), goerr.V("dimension", dim))
		}
		if impact < 0 || impact > 1 {
			return goerr.New("dimension impact must be between 0 and 1",
				goerr.V("id", v.ID), goerr.V("dimension", dim), goerr.V("impact", impact))
		}
	}
	return nil
}

// CVEAge returns the number of days since CVE publication, or -1 when no CVE
// publication date is recorded
func (v *Vulnerability) CVEAge(now time.Time) int {
	if v.CVEPublishedAt == nil {
		return -1
	}
	return int(now.Sub(*v.CVEPublishedAt).Hours() / 24)
}
