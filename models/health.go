// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// HealthStatus is the derived classification of recent sync behaviour.
type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthSlow      HealthStatus = "slow"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// SyncRecord is one entry of the recent-syncs history.
type SyncRecord struct {
	ID         string        `json:"id"`
	Operation  SyncOperation `json:"operation"`
	StartedAt  time.Time     `json:"startedAt"`
	DurationMs int64         `json:"durationMs"`
	Success    bool          `json:"success"`
	ErrorClass string        `json:"errorClass,omitempty"`
}

// HealthSnapshot is a read-only copy of the health state handed to
// dashboards. RecentSyncs is ordered newest first.
type HealthSnapshot struct {
	Status              HealthStatus `json:"status"`
	SuccessfulSyncs     int          `json:"successfulSyncs"`
	FailedSyncs         int          `json:"failedSyncs"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	AverageSyncTimeMs   float64      `json:"averageSyncTimeMs"`
	ErrorRate           float64      `json:"errorRate"`
	SuccessRate         float64      `json:"successRate"`
	LastSyncTime        *time.Time   `json:"lastSyncTime,omitempty"`
	Issues              []string     `json:"issues,omitempty"`
	RecentSyncs         []SyncRecord `json:"recentSyncs"`
}

// TotalSyncs returns the number of recorded attempts.
func (h HealthSnapshot) TotalSyncs() int {
	return h.SuccessfulSyncs + h.FailedSyncs
}
