package prom

const namespace = "farmstead"

const (
	MetricNamePlotsPlanted   = "plots_planted_total"
	MetricNameInvestment     = "investment_amount_total"
	MetricNamePlotsHarvested = "plots_harvested_total"
	MetricNameYield          = "yield_amount_total"
	MetricNameRejections     = "rejections_total"
	MetricNameFailures       = "failures_total"
	MetricNameClockSkew      = "clock_skew_total"
	MetricNameHTTPRequests   = "http_requests_total"
	MetricNameHTTPDuration   = "http_request_duration_seconds"
	MetricNameHTTPInFlight   = "http_requests_in_flight"
)

const (
	LabelClass  = "plot_class"
	LabelOp     = "op"
	LabelReason = "reason"
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
)

var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
