// Package jobmetrics holds the Prometheus collectors of the background tasks.
package jobmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	purged      prometheus.Counter
	recounted   prometheus.Counter
}

// NewMetrics registers the job collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etalase_jobs_total",
			Help: "Job executions by task type and outcome.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "etalase_job_duration_seconds",
			Help:    "Job execution time by task type.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "etalase_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run by task type.",
		}, []string{"job"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etalase_storage_objects_purged_total",
			Help: "Storage objects removed after their row write failed or was replaced.",
		}),
		recounted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etalase_sme_product_recounts_total",
			Help: "SME rows whose denormalised product count was refreshed.",
		}),
	}
	registerer.MustRegister(m.runs, m.duration, m.lastSuccess, m.purged, m.recounted)
	return m
}

// Tracker times a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job. A nil Metrics yields a no-op tracker.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the outcome and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		t.metrics.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddPurged counts storage objects removed by the purge task.
func (m *Metrics) AddPurged(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.purged.Add(float64(count))
}

// AddRecounted counts SME rows whose product_count was refreshed.
func (m *Metrics) AddRecounted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.recounted.Add(float64(count))
}
