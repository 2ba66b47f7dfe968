package ports

import (
	"time"

	"github.com/bnema/wadash/internal/domain"
)

type SyncMetrics interface {
	ObserveEvent(kind domain.EntityKind, outcome domain.ApplyOutcome)
	ObservePoll(kind domain.EntityKind, err error, elapsed time.Duration)
	ObserveConnState(kind domain.EntityKind, state domain.ConnState)
}

type NopSyncMetrics struct{}

func (NopSyncMetrics) ObserveEvent(domain.EntityKind, domain.ApplyOutcome) {}
func (NopSyncMetrics) ObservePoll(domain.EntityKind, error, time.Duration) {}
func (NopSyncMetrics) ObserveConnState(domain.EntityKind, domain.ConnState) {}
