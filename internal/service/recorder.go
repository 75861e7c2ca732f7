package service

import (
	"time"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Recorder receives service-level measurements. The metrics package provides
// the Prometheus implementation.
type Recorder interface {
	RegistryLookup(hit bool)
	RegistryRefresh(elapsed time.Duration, err error)
	BatchCompleted(size, failed int, elapsed time.Duration)
	OpportunityFound(tier domain.RiskTier)
}

type nopRecorder struct{}

func (nopRecorder) RegistryLookup(bool)                    {}
func (nopRecorder) RegistryRefresh(time.Duration, error)   {}
func (nopRecorder) BatchCompleted(int, int, time.Duration) {}
func (nopRecorder) OpportunityFound(domain.RiskTier)       {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
