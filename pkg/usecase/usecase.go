package usecase

import (
	"time"

	"github.com/secmon-lab/moirai/pkg/domain/interfaces"
)

type UseCases struct {
	repo interfaces.Repository

	Risk       *RiskUseCase
	Simulation *SimulationUseCase
	Dashboard  *DashboardUseCase
	Matrix     *MatrixUseCase
}

type Option func(*options)

type options struct {
	notifier   interfaces.Notifier
	clock      func() time.Time
	newSampler func() *Sampler
}

// WithNotifier sets the escalation notification collaborator
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// WithClock overrides the time source, used by tests exercising seasonal and
// CVE-age adjustments
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithSamplerFactory overrides the random stream construction, used by tests
// to obtain reproducible simulations
func WithSamplerFactory(factory func() *Sampler) Option {
	return func(o *options) {
		o.newSampler = factory
	}
}

// Repository exposes the underlying repository for entity registration by
// the calling layer
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	o := &options{
		clock:      time.Now,
		newSampler: NewSampler,
	}
	for _, opt := range opts {
		opt(o)
	}

	uc := &UseCases{
		repo: repo,
	}
	uc.Risk = NewRiskUseCase(repo, o.notifier, o.clock)
	uc.Simulation = NewSimulationUseCase(repo, o.newSampler)
	uc.Dashboard = NewDashboardUseCase(repo, o.clock)
	uc.Matrix = NewMatrixUseCase(repo)

	return uc
}
