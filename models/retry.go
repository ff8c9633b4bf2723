// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// RetryAttemptRecord describes one failed attempt that was followed by a
// backoff sleep.
type RetryAttemptRecord struct {
	AttemptNumber int    `json:"attemptNumber"`
	DelayMs       int64  `json:"delayMs"`
	ErrorClass    string `json:"errorClass"`
}

// RetryMetrics accumulates terminal outcomes of retried operations for the
// life of the process or until explicitly reset.
type RetryMetrics struct {
	TotalOperations      int            `json:"totalOperations"`
	SuccessfulOperations int            `json:"successfulOperations"`
	RetriedOperations    int            `json:"retriedOperations"`
	TotalRetries         int            `json:"totalRetries"`
	ErrorsByType         map[string]int `json:"errorsByType"`
}

// Clone returns a deep copy that is safe to hand to readers.
func (m RetryMetrics) Clone() RetryMetrics {
	out := m
	out.ErrorsByType = make(map[string]int, len(m.ErrorsByType))
	for k, v := range m.ErrorsByType {
		out.ErrorsByType[k] = v
	}
	return out
}
