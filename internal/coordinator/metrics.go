package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts coordinator outcomes. DedupHits counts requests attached to
// an already-running transfer, DiskHits requests satisfied without any
// transfer at all.
type Metrics struct {
	Started   prometheus.Counter
	Completed prometheus.Counter
	Failed    prometheus.Counter
	DedupHits prometheus.Counter
	DiskHits  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Started: f.NewCounter(prometheus.CounterOpts{
			Name: "media_transfers_started_total",
			Help: "Transfers handed to the transfer backend.",
		}),
		Completed: f.NewCounter(prometheus.CounterOpts{
			Name: "media_transfers_completed_total",
			Help: "Transfers that finished successfully.",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "media_transfers_failed_total",
			Help: "Transfers that finished with an error.",
		}),
		DedupHits: f.NewCounter(prometheus.CounterOpts{
			Name: "media_transfer_dedup_hits_total",
			Help: "Requests attached to an in-flight transfer for the same cache path.",
		}),
		DiskHits: f.NewCounter(prometheus.CounterOpts{
			Name: "media_cache_disk_hits_total",
			Help: "Requests satisfied directly from the disk cache.",
		}),
	}
}
