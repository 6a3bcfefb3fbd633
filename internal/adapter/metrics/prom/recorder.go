package prom

import (
	"context"
	"strconv"
	"time"

	"farmstead/internal/domain/farm"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports farm and HTTP metrics to a Prometheus registry.
type Recorder struct {
	plotsPlanted   *prometheus.CounterVec
	investment     *prometheus.CounterVec
	plotsHarvested *prometheus.CounterVec
	yield          *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	failures       *prometheus.CounterVec
	clockSkew      prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		plotsPlanted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNamePlotsPlanted,
			Help:      "Plots planted, by class",
		}, []string{LabelClass}),
		investment: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNameInvestment,
			Help:      "Sum of investment amounts planted, by class",
		}, []string{LabelClass}),
		plotsHarvested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNamePlotsHarvested,
			Help:      "Plots harvested, by class",
		}, []string{LabelClass}),
		yield: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNameYield,
			Help:      "Sum of yield paid out, by class",
		}, []string{LabelClass}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNameRejections,
			Help:      "Requests rejected by a business rule",
		}, []string{LabelOp, LabelReason}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNameFailures,
			Help:      "Operations that failed on storage after rollback",
		}, []string{LabelOp}),
		clockSkew: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNameClockSkew,
			Help:      "Harvests whose instant preceded planting",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricNameHTTPRequests,
			Help:      "Total number of HTTP requests",
		}, []string{LabelMethod, LabelPath, LabelStatus}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      MetricNameHTTPDuration,
			Help:      "HTTP request latency in seconds",
			Buckets:   HTTPLatencyBuckets,
		}, []string{LabelMethod, LabelPath}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      MetricNameHTTPInFlight,
			Help:      "Current number of HTTP requests being served",
		}),
	}
}

func (r *Recorder) RecordPlant(class farm.PlotClass, amount float64) {
	r.plotsPlanted.WithLabelValues(string(class)).Inc()
	if amount > 0 {
		r.investment.WithLabelValues(string(class)).Add(amount)
	}
}

func (r *Recorder) RecordHarvest(class farm.PlotClass, yieldAmount float64) {
	r.plotsHarvested.WithLabelValues(string(class)).Inc()
	if yieldAmount > 0 {
		r.yield.WithLabelValues(string(class)).Add(yieldAmount)
	}
}

func (r *Recorder) RecordRejection(op, reason string) {
	r.rejections.WithLabelValues(op, reason).Inc()
}

func (r *Recorder) RecordFailure(op string) {
	r.failures.WithLabelValues(op).Inc()
}

func (r *Recorder) RecordClockSkew() {
	r.clockSkew.Inc()
}

// Middleware records request count, latency and in-flight gauge. Paths are
// labelled by route pattern to keep cardinality bounded.
func (r *Recorder) Middleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		r.httpInFlight.Inc()
		defer r.httpInFlight.Dec()

		c.Next(ctx)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := string(c.Method())
		r.httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response.StatusCode())).Inc()
		r.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
