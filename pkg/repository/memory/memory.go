package memory

import (
	"errors"

	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
)

// Sentinel errors shared by the in-memory repositories
var (
	ErrNotFound         = errors.New("not found")
	ErrRevisionMismatch = errors.New("revision mismatch")
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory implementation of interfaces.Repository, used for
// development mode and as the test fake.
type Memory struct {
	asset  *assetRepository
	threat *threatRepository
	vuln   *vulnerabilityRepository
	risk   *riskRepository
	matrix *matrixRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		asset:  newAssetRepository(),
		threat: newThreatRepository(),
		vuln:   newVulnerabilityRepository(),
		risk:   newRiskRepository(),
		matrix: newMatrixRepository(),
	}
}

func (m *Memory) Asset() interfaces.AssetRepository {
	return m.asset
}

func (m *Memory) Threat() interfaces.ThreatRepository {
	return m.threat
}

func (m *Memory) Vulnerability() interfaces.VulnerabilityRepository {
	return m.vuln
}

func (m *Memory) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Memory) Matrix() interfaces.MatrixRepository {
	return m.matrix
}

func (m *Memory) Close() error {
	return nil
}
