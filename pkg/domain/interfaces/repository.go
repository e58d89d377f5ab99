package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Asset() AssetRepository
	Threat() ThreatRepository
	Vulnerability() VulnerabilityRepository
	Risk() RiskRepository
	Matrix() MatrixRepository

	// Close releases the underlying backend resources
	Close() error
}
