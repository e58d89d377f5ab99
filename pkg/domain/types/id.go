package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// AssetID represents a unique identifier for an asset
type AssetID string

// NewAssetID generates a new random AssetID
func NewAssetID() AssetID {
	return AssetID(uuid.NewString())
}

// Validate checks if the AssetID is valid
func (a AssetID) Validate() error {
	if a == "" {
		return goerr.New("asset ID cannot be empty")
	}
	if _, err := uuid.Parse(string(a)); err != nil {
		return goerr.Wrap(err, "asset ID must be a UUID", goerr.V("id", a))
	}
	return nil
}

// String returns the string representation of AssetID
func (a AssetID) String() string {
	return string(a)
}

// ThreatID represents a unique identifier for a threat
type ThreatID string

// NewThreatID generates a new random ThreatID
func NewThreatID() ThreatID {
	return ThreatID(uuid.NewString())
}

// Validate checks if the ThreatID is valid
func (t ThreatID) Validate() error {
	if t == "" {
		return goerr.New("threat ID cannot be empty")
	}
	if _, err := uuid.Parse(string(t)); err != nil {
		return goerr.Wrap(err, "threat ID must be a UUID", goerr.V("id", t))
	}
	return nil
}

// String returns the string representation of ThreatID
func (t ThreatID) String() string {
	return string(t)
}

// VulnerabilityID represents a unique identifier for a vulnerability
type VulnerabilityID string

// NewVulnerabilityID generates a new random VulnerabilityID
func NewVulnerabilityID() VulnerabilityID {
	return VulnerabilityID(uuid.NewString())
}

// Validate checks if the VulnerabilityID is valid
func (v VulnerabilityID) Validate() error {
	if v == "" {
		return goerr.New("vulnerability ID cannot be empty")
	}
	if _, err := uuid.Parse(string(v)); err != nil {
		return goerr.Wrap(err, "vulnerability ID must be a UUID", goerr.V("id", v))
	}
	return nil
}

// String returns the string representation of VulnerabilityID
func (v VulnerabilityID) String() string {
	return string(v)
}

// OrgID represents a unique identifier for an organization
type OrgID string

// Validate checks if the OrgID is valid
func (o OrgID) Validate() error {
	if o == "" {
		return goerr.New("organization ID cannot be empty")
	}
	return nil
}

// String returns the string representation of OrgID
func (o OrgID) String() string {
	return string(o)
}

// MatrixID represents a unique identifier for a risk matrix
type MatrixID string

// NewMatrixID generates a new random MatrixID
func NewMatrixID() MatrixID {
	return MatrixID(uuid.NewString())
}

// Validate checks if the MatrixID is valid
func (m MatrixID) Validate() error {
	if m == "" {
		return goerr.New("matrix ID cannot be empty")
	}
	if _, err := uuid.Parse(string(m)); err != nil {
		return goerr.Wrap(err, "matrix ID must be a UUID", goerr.V("id", m))
	}
	return nil
}

// String returns the string representation of MatrixID
func (m MatrixID) String() string {
	return string(m)
}
