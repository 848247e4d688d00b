package installer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kubefoundry/kubefoundry/internal/helm"
	"github.com/kubefoundry/kubefoundry/internal/providers"
	"github.com/kubefoundry/kubefoundry/pkg/models"
)

// Service serialises installation runs per provider: a caller asking for the
// operation already in flight shares its outcome, and a caller asking for a
// different operation gets an *OperationInProgressError. Helm never runs two
// operations against the same provider's releases at once.
type Service struct {
	// Timeout bounds a whole run when positive.
	Timeout time.Duration

	orch   *Orchestrator
	group  singleflight.Group
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]string
}

// NewService wraps an orchestrator.
func NewService(orch *Orchestrator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if orch.Logger == nil {
		orch.Logger = logger
	}
	return &Service{orch: orch, logger: logger, inflight: map[string]string{}}
}

// Status returns the current installation status of a provider.
func (s *Service) Status(ctx context.Context, providerID string) (models.InstallationStatus, error) {
	p, err := s.orch.Registry.Get(providerID)
	if err != nil {
		return models.InstallationStatus{}, err
	}
	return s.orch.Status.InstallationStatus(ctx, p)
}

// Registry exposes the provider registry the service installs from.
func (s *Service) Registry() *providers.Registry {
	return s.orch.Registry
}

// Run executes operation for providerID. Output lines go to the logger and
// to onLine; a shared caller only receives lines through the logger.
//
// The run outlives the caller that started it: cancelling ctx does not abort
// helm for the other callers sharing the run, which is bounded by Timeout
// instead.
func (s *Service) Run(ctx context.Context, operation, providerID string, onLine helm.LineFunc) (*models.InstallationOutcome, bool, error) {
	if !knownOperation(operation) {
		return nil, false, &UnknownOperationError{Operation: operation}
	}
	if err := s.conflict(providerID, operation); err != nil {
		return nil, false, err
	}

	log := s.logger.With(zap.String("provider", providerID), zap.String("operation", operation))
	sink := func(line string, stream helm.Stream) {
		log.Debug(line, zap.String("stream", string(stream)))
		if onLine != nil {
			onLine(line, stream)
		}
	}

	v, err, shared := s.group.Do(providerID, func() (any, error) {
		s.mu.Lock()
		s.inflight[providerID] = operation
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, providerID)
			s.mu.Unlock()
		}()

		ctx := context.WithoutCancel(ctx)
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}
		log.Info("starting")
		var (
			out *models.InstallationOutcome
			err error
		)
		switch operation {
		case models.OperationInstall:
			out, err = s.orch.Install(ctx, providerID, sink)
		case models.OperationUpgrade:
			out, err = s.orch.Upgrade(ctx, providerID, sink)
		case models.OperationUninstall:
			out, err = s.orch.Uninstall(ctx, providerID, sink)
		}
		if err != nil {
			log.Error("failed", zap.Error(err))
		} else {
			log.Info("finished",
				zap.Bool("success", out.Success),
				zap.Bool("alreadyInstalled", out.AlreadyInstalled),
				zap.Int("steps", len(out.Results)),
				zap.Strings("warnings", out.Warnings))
		}
		return run{operation: operation, out: out, err: err}, nil
	})
	if err != nil {
		return nil, shared, err
	}
	r := v.(run)
	// A different operation can start between the conflict check and Do;
	// its outcome must not be handed to this caller.
	if r.operation != operation {
		return nil, false, &OperationInProgressError{Provider: providerID, Operation: r.operation}
	}
	if r.err != nil {
		return nil, shared, r.err
	}
	return r.out, shared, nil
}

type run struct {
	operation string
	out       *models.InstallationOutcome
	err       error
}

func (s *Service) conflict(providerID, operation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.inflight[providerID]; ok && cur != operation {
		return &OperationInProgressError{Provider: providerID, Operation: cur}
	}
	return nil
}

func knownOperation(op string) bool {
	switch op {
	case models.OperationInstall, models.OperationUpgrade, models.OperationUninstall:
		return true
	}
	return false
}

// OperationInProgressError is returned when another operation is already
// running against the same provider.
type OperationInProgressError struct {
	Provider  string
	Operation string
}

func (e *OperationInProgressError) Error() string {
	return "operation " + e.Operation + " already in progress for provider " + e.Provider
}

// UnknownOperationError is returned for an operation other than install,
// upgrade or uninstall.
type UnknownOperationError struct {
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return "unknown installation operation " + e.Operation
}
