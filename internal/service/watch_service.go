package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Watch defaults.
const (
	DefaultWatchChunk   = 20
	DefaultWatchChannel = "liquidations"
	DefaultWatchLockKey = "liqscope:watch"
)

// WatchConfig controls the periodic scan of a fixed address list.
type WatchConfig struct {
	Interval  time.Duration
	Addresses []string
	ChunkSize int
	Channel   string
	LockKey   string
	LockTTL   time.Duration
}

// BatchAnalyzer analyses a list of addresses.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, addresses []string) []domain.BatchResult
}

// Publisher sends a payload on a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// OpportunityAlerter raises an operator alert for one opportunity.
type OpportunityAlerter interface {
	AlertOpportunity(ctx context.Context, opp *domain.LiquidationOpportunity) error
}

// ScanReport summarises one watch pass.
type ScanReport struct {
	Scanned      int
	Liquidatable int
	AtRisk       int
	Failed       int
	Published    int
	Alerted      int
	Skipped      bool
}

// WatchService periodically scans the configured addresses, publishes every
// opportunity and alerts on HIGH tier accounts. Locks, publisher and alerter
// are optional.
type WatchService struct {
	batch   BatchAnalyzer
	locks   domain.LockManager
	pub     Publisher
	alerter OpportunityAlerter
	cfg     WatchConfig
	now     func() time.Time
	marshal func(any) ([]byte, error)
	logger  *slog.Logger
}

// NewWatchService creates a WatchService and fills in config defaults.
func NewWatchService(
	batch BatchAnalyzer,
	locks domain.LockManager,
	pub Publisher,
	alerter OpportunityAlerter,
	cfg WatchConfig,
	logger *slog.Logger,
) *WatchService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultWatchChunk
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultWatchChannel
	}
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultWatchLockKey
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	return &WatchService{
		batch:   batch,
		locks:   locks,
		pub:     pub,
		alerter: alerter,
		cfg:     cfg,
		now:     time.Now,
		marshal: json.Marshal,
		logger:  logger.With(slog.String("component", "watch_service")),
	}
}

// Run scans immediately and then on every interval until ctx is cancelled.
func (s *WatchService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "watcher started",
		slog.Int("addresses", len(s.cfg.Addresses)),
		slog.Duration("interval", s.cfg.Interval),
	)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "watch scan failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ScanOnce runs one pass over the watch list. When another replica holds the
// scan lock the pass is skipped.
func (s *WatchService) ScanOnce(ctx context.Context) (ScanReport, error) {
	var report ScanReport
	if len(s.cfg.Addresses) == 0 {
		return report, nil
	}

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.DebugContext(ctx, "scan lock held elsewhere, skipping")
			report.Skipped = true
			return report, nil
		}
		if err != nil {
			return report, fmt.Errorf("watch_service: acquire lock: %w", err)
		}
		defer unlock()
	}

	for _, chunk := range lo.Chunk(s.cfg.Addresses, s.cfg.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		for _, res := range s.batch.AnalyzeBatch(ctx, chunk) {
			report.Scanned++
			s.record(ctx, res, &report)
		}
	}

	s.logger.InfoContext(ctx, "watch scan complete",
		slog.Int("scanned", report.Scanned),
		slog.Int("liquidatable", report.Liquidatable),
		slog.Int("at_risk", report.AtRisk),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *WatchService) record(ctx context.Context, res domain.BatchResult, report *ScanReport) {
	switch {
	case res.Error != "":
		report.Failed++
		s.logger.WarnContext(ctx, "watch address failed",
			slog.String("address", res.Address),
			slog.String("error", res.Error),
		)
		return
	case res.Opportunity == nil:
		return
	}

	opp := res.Opportunity
	if opp.RiskTier == domain.RiskHigh {
		report.Liquidatable++
	} else {
		report.AtRisk++
	}

	if s.pub != nil {
		s.publish(ctx, res.Address, opp, report)
	}

	if s.alerter != nil && opp.RiskTier == domain.RiskHigh {
		if err := s.alerter.AlertOpportunity(ctx, opp); err != nil {
			s.logger.WarnContext(ctx, "alert failed",
				slog.String("address", res.Address),
				slog.String("error", err.Error()),
			)
		} else {
			report.Alerted++
		}
	}
}

// publish skips the event when it cannot be encoded or sent.
func (s *WatchService) publish(ctx context.Context, address string, opp *domain.LiquidationOpportunity, report *ScanReport) {
	evt, err := s.marshal(map[string]any{
		"event":       "opportunity",
		"observed_at": s.now().UTC().Format(time.RFC3339Nano),
		"opportunity": opp,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "encode opportunity failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.pub.Publish(ctx, s.cfg.Channel, evt); err != nil {
		s.logger.WarnContext(ctx, "publish opportunity failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		return
	}
	report.Published++
}
