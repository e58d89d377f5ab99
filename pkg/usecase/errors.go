package usecase

import "errors"

// Sentinel errors for the engine's error taxonomy. The engine raises; the
// calling layer decides retry versus surfacing.
var (
	// ErrNotFound indicates a referenced asset, threat, vulnerability, risk
	// or matrix is absent
	ErrNotFound = errors.New("entity not found")

	// ErrInconsistentReference indicates the vulnerability does not belong
	// to the supplied asset
	ErrInconsistentReference = errors.New("inconsistent entity reference")

	// ErrInvalidConfiguration indicates a missing default matrix or a matrix
	// failing configuration validation
	ErrInvalidConfiguration = errors.New("invalid matrix configuration")

	// ErrValidation indicates an input-contract violation (iteration count,
	// confidence level, time horizon or scenario parameters out of bounds)
	ErrValidation = errors.New("validation error")
)

// Context keys for error values
const (
	AssetIDKey  = "asset_id"
	ThreatIDKey = "threat_id"
	VulnIDKey   = "vulnerability_id"
	RiskIDKey   = "risk_id"
	OrgIDKey    = "organization_id"
	MatrixIDKey = "matrix_id"
)
