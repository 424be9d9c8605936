package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/venue-commerce-admin/internal/domain/shared"
)

// WorkerPoolProcessingService bounds how many syncs run at once
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// guards inFlight
	mu       sync.Mutex
	inFlight map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		inFlight:    make(map[string]chan error),
	}, nil
}

// ProcessSync submits the request to the pool and waits for its result.
func (s *WorkerPoolProcessingService) ProcessSync(ctx context.Context, request *shared.SyncRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	runID := request.RequestID.String()
	logger.Info("Submitting sync request to worker pool", "run_id", runID, "kind", request.Kind)

	resultChan := make(chan error, 1)

	s.mu.Lock()
	s.inFlight[runID] = resultChan
	s.mu.Unlock()

	requestCopy := *request

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.ProcessSync(ctx, &requestCopy)

		s.mu.Lock()
		delete(s.inFlight, runID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.inFlight, runID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit sync request to worker pool", "run_id", runID, "error", err)
		return err
	}

	return <-resultChan
}

// InFlight reports how many submitted requests have not finished
func (s *WorkerPoolProcessingService) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
