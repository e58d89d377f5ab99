package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
)

// Sentinel errors shared by the Firestore repositories
var (
	ErrNotFound         = errors.New("not found")
	ErrRevisionMismatch = errors.New("revision mismatch")
)

type Firestore struct {
	client *firestore.Client
	asset  *assetRepository
	threat *threatRepository
	vuln   *vulnerabilityRepository
	risk   *riskRepository
	matrix *matrixRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.asset.collectionPrefix = prefix
		f.threat.collectionPrefix = prefix
		f.vuln.collectionPrefix = prefix
		f.risk.collectionPrefix = prefix
		f.matrix.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client: client,
		asset:  newAssetRepository(client),
		threat: newThreatRepository(client),
		vuln:   newVulnerabilityRepository(client),
		risk:   newRiskRepository(client),
		matrix: newMatrixRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Asset() interfaces.AssetRepository {
	return f.asset
}

func (f *Firestore) Threat() interfaces.ThreatRepository {
	return f.threat
}

func (f *Firestore) Vulnerability() interfaces.VulnerabilityRepository {
	return f.vuln
}

func (f *Firestore) Risk() interfaces.RiskRepository {
	return f.risk
}

func (f *Firestore) Matrix() interfaces.MatrixRepository {
	return f.matrix
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
