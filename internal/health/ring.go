// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package health

import "github.com/MKhiriev/go-budget-sync/models"

// ring is a fixed-capacity buffer of sync records; the oldest record is
// overwritten once it is full.
type ring struct {
	buf  []models.SyncRecord
	next int
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]models.SyncRecord, capacity)}
}

func (r *ring) push(rec models.SyncRecord) {
	r.buf[r.next] = rec
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *ring) newestFirst() []models.SyncRecord {
	out := make([]models.SyncRecord, 0, r.size)
	for i := 1; i <= r.size; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	return out
}

func (r *ring) averageMs() float64 {
	if r.size == 0 {
		return 0
	}
	var total int64
	for i := 1; i <= r.size; i++ {
		total += r.buf[(r.next-i+len(r.buf))%len(r.buf)].DurationMs
	}
	return float64(total) / float64(r.size)
}
