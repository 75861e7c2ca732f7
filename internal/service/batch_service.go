package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// DefaultBatchConcurrency is the worker count used when none is configured.
const DefaultBatchConcurrency = 5

// BatchService analyses many addresses with a bounded worker pool. Per-address
// failures are reported in the result slot and never abort the batch.
type BatchService struct {
	analyzer    Analyzer
	concurrency int
	recorder    Recorder
	logger      *slog.Logger
}

// NewBatchService creates a BatchService. A non-positive concurrency selects
// DefaultBatchConcurrency.
func NewBatchService(analyzer Analyzer, concurrency int, recorder Recorder, logger *slog.Logger) *BatchService {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &BatchService{
		analyzer:    analyzer,
		concurrency: concurrency,
		recorder:    recorderOrNop(recorder),
		logger:      logger.With(slog.String("component", "batch_service")),
	}
}

// AnalyzeBatch returns one result per address in input order. Workers claim
// indices from a shared counter and write only their own slots.
func (s *BatchService) AnalyzeBatch(ctx context.Context, addresses []string) []domain.BatchResult {
	results := make([]domain.BatchResult, len(addresses))
	if len(addresses) == 0 {
		return results
	}
	start := time.Now()

	var (
		next   atomic.Int64
		failed atomic.Int64
		wg     sync.WaitGroup
	)
	workers := min(s.concurrency, len(addresses))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(addresses) {
					return
				}
				results[i] = s.analyzeOne(ctx, addresses[i])
				if results[i].Error != "" {
					failed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	s.recorder.BatchCompleted(len(addresses), int(failed.Load()), time.Since(start))
	s.logger.DebugContext(ctx, "batch analysed",
		slog.Int("addresses", len(addresses)),
		slog.Int("workers", workers),
		slog.Int64("failed", failed.Load()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return results
}

func (s *BatchService) analyzeOne(ctx context.Context, address string) (res domain.BatchResult) {
	res.Address = address
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "batch worker panic",
				slog.String("address", address),
				slog.Any("panic", r),
			)
			res.Opportunity = nil
			res.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	opp, err := s.analyzer.Analyze(ctx, address)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Opportunity = opp
	return res
}
