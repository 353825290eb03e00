// Package metrics exposes run counters for the upload and playlist jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "versecast"

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
	ResultQuota   = "quota"
)

// Recorder holds collectors on a private registry. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry       *prometheus.Registry
	uploads        *prometheus.CounterVec
	uploadRetries  prometheus.Counter
	playlistItems  prometheus.Counter
	playlists      prometheus.Counter
	jobRuns        *prometheus.CounterVec
	lastSuccess    *prometheus.GaugeVec
	pendingRecords prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Chapter uploads by result.",
		}, []string{"result"}),
		uploadRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_retries_total",
			Help:      "Upload attempts retried after a transient error.",
		}),
		playlistItems: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_items_added_total",
			Help:      "Videos added to book playlists.",
		}),
		playlists: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlists_created_total",
			Help:      "Book playlists created.",
		}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per job.",
		}, []string{"job"}),
		pendingRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_records",
			Help:      "History records still waiting for upload.",
		}),
	}
}

func (r *Recorder) Upload(result string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(result).Inc()
}

func (r *Recorder) UploadRetry() {
	if r == nil {
		return
	}
	r.uploadRetries.Inc()
}

func (r *Recorder) PlaylistItemAdded() {
	if r == nil {
		return
	}
	r.playlistItems.Inc()
}

func (r *Recorder) PlaylistCreated() {
	if r == nil {
		return
	}
	r.playlists.Inc()
}

func (r *Recorder) Pending(n int) {
	if r == nil {
		return
	}
	r.pendingRecords.Set(float64(n))
}

func (r *Recorder) JobRun(job, result string, at time.Time) {
	if r == nil {
		return
	}
	r.jobRuns.WithLabelValues(job, result).Inc()
	if result == ResultSuccess {
		r.lastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
