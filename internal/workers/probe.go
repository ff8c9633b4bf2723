// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
)

// ConnectivityProbe pings the store on a fixed interval and reports every
// online/offline transition to its target. Coming back online flushes the
// offline queue as a side effect of the target's Refresh.
type ConnectivityProbe struct {
	target   ConnectivityTarget
	interval time.Duration
	clock    clock.Clock

	logger *logger.Logger
}

func NewConnectivityProbe(target ConnectivityTarget, interval time.Duration, clk clock.Clock, log *logger.Logger) *ConnectivityProbe {
	if interval <= 0 {
		interval = config.DefaultProbeInterval
	}
	return &ConnectivityProbe{
		target:   target,
		interval: interval,
		clock:    clk,
		logger:   log.Component("connectivity_probe"),
	}
}

// Run probes once immediately and then every interval until ctx is done.
func (p *ConnectivityProbe) Run(ctx context.Context) {
	t := p.clock.NewTicker(p.interval)
	defer t.Stop()

	p.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			p.probe(ctx)
		}
	}
}

func (p *ConnectivityProbe) probe(ctx context.Context) {
	was := p.target.IsOnline()
	snapshot := p.target.Refresh(ctx)
	now := p.target.IsOnline()

	if was != now {
		p.logger.Info().
			Bool("online", now).
			Str("health", string(snapshot.Status)).
			Msg("connectivity changed")
	}
}
