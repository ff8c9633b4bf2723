// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package health

import (
	"github.com/MKhiriev/go-budget-sync/models"
	"github.com/prometheus/client_golang/prometheus"
)

// RetryMetricsSource exposes accumulated retry metrics.
type RetryMetricsSource interface {
	Metrics() models.RetryMetrics
}

var allStatuses = []models.HealthStatus{
	models.HealthUnknown,
	models.HealthHealthy,
	models.HealthSlow,
	models.HealthDegraded,
	models.HealthUnhealthy,
}

// Collector is a prometheus.Collector reading the monitor and retry metrics
// at scrape time.
type Collector struct {
	monitor *Monitor
	retries RetryMetricsSource

	status              *prometheus.Desc
	successfulSyncs     *prometheus.Desc
	failedSyncs         *prometheus.Desc
	consecutiveFailures *prometheus.Desc
	averageSyncSeconds  *prometheus.Desc
	errorRate           *prometheus.Desc

	retryOperations   *prometheus.Desc
	retrySuccessful   *prometheus.Desc
	retryRetried      *prometheus.Desc
	retryAttempts     *prometheus.Desc
	retryErrorsByType *prometheus.Desc
}

// NewCollector builds a Collector. retries may be nil.
func NewCollector(namespace string, monitor *Monitor, retries RetryMetricsSource) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "sync", name), help, labels, nil)
	}

	return &Collector{
		monitor: monitor,
		retries: retries,

		status:              desc("health_status", "Current sync health status (1 for the active status).", "status"),
		successfulSyncs:     desc("successful_total", "Successful sync attempts."),
		failedSyncs:         desc("failed_total", "Failed sync attempts."),
		consecutiveFailures: desc("consecutive_failures", "Failures since the last success."),
		averageSyncSeconds:  desc("average_duration_seconds", "Average duration of recent sync attempts."),
		errorRate:           desc("error_rate", "Failed attempts divided by all attempts."),

		retryOperations:   desc("retry_operations_total", "Operations executed by the retry manager."),
		retrySuccessful:   desc("retry_successful_operations_total", "Retried operations that eventually succeeded."),
		retryRetried:      desc("retry_retried_operations_total", "Operations that needed more than one attempt."),
		retryAttempts:     desc("retry_attempts_total", "Extra attempts made after a failure."),
		retryErrorsByType: desc("retry_errors_total", "Failed attempts by error category.", "type"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.status
	ch <- c.successfulSyncs
	ch <- c.failedSyncs
	ch <- c.consecutiveFailures
	ch <- c.averageSyncSeconds
	ch <- c.errorRate
	ch <- c.retryOperations
	ch <- c.retrySuccessful
	ch <- c.retryRetried
	ch <- c.retryAttempts
	ch <- c.retryErrorsByType
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.monitor.Snapshot()

	for _, st := range allStatuses {
		v := 0.0
		if st == s.Status {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.status, prometheus.GaugeValue, v, string(st))
	}
	ch <- prometheus.MustNewConstMetric(c.successfulSyncs, prometheus.CounterValue, float64(s.SuccessfulSyncs))
	ch <- prometheus.MustNewConstMetric(c.failedSyncs, prometheus.CounterValue, float64(s.FailedSyncs))
	ch <- prometheus.MustNewConstMetric(c.consecutiveFailures, prometheus.GaugeValue, float64(s.ConsecutiveFailures))
	ch <- prometheus.MustNewConstMetric(c.averageSyncSeconds, prometheus.GaugeValue, s.AverageSyncTimeMs/1000)
	ch <- prometheus.MustNewConstMetric(c.errorRate, prometheus.GaugeValue, s.ErrorRate)

	if c.retries == nil {
		return
	}
	r := c.retries.Metrics()
	ch <- prometheus.MustNewConstMetric(c.retryOperations, prometheus.CounterValue, float64(r.TotalOperations))
	ch <- prometheus.MustNewConstMetric(c.retrySuccessful, prometheus.CounterValue, float64(r.SuccessfulOperations))
	ch <- prometheus.MustNewConstMetric(c.retryRetried, prometheus.CounterValue, float64(r.RetriedOperations))
	ch <- prometheus.MustNewConstMetric(c.retryAttempts, prometheus.CounterValue, float64(r.TotalRetries))
	for typ, n := range r.ErrorsByType {
		ch <- prometheus.MustNewConstMetric(c.retryErrorsByType, prometheus.CounterValue, float64(n), typ)
	}
}
