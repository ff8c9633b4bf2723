// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
)

// AutoSync calls ForceSync on a ticker. A zero or negative interval
// disables it.
type AutoSync struct {
	syncer   Syncer
	interval time.Duration
	clock    clock.Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

func NewAutoSync(syncer Syncer, interval time.Duration, clk clock.Clock, log *logger.Logger) *AutoSync {
	return &AutoSync{
		syncer:   syncer,
		interval: interval,
		clock:    clk,
		logger:   log.Component("auto_sync"),
	}
}

// Run implements [Worker] by starting the job and waiting for ctx.
func (j *AutoSync) Run(ctx context.Context) {
	j.Start(ctx)
	<-ctx.Done()
	j.Stop()
}

// Start stops any previously running job, then launches a goroutine that
// syncs every interval until ctx is cancelled or Stop is called.
func (j *AutoSync) Start(ctx context.Context) {
	j.Stop()
	if j.interval <= 0 {
		return
	}

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	t := j.clock.NewTicker(j.interval)
	go func() {
		defer j.wg.Done()
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C():
				j.syncOnce(jobCtx)
			}
		}
	}()
}

// Stop cancels the job and blocks until its goroutine has exited. It is a
// no-op when the job is not running.
func (j *AutoSync) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *AutoSync) syncOnce(ctx context.Context) {
	outcome, err := j.syncer.ForceSync(ctx)
	switch {
	case err != nil:
		j.logger.Warn().Err(err).Msg("automatic sync failed")
	case outcome.Queued:
		j.logger.Info().Str("operation_id", outcome.OperationID).Msg("automatic sync queued")
	case outcome.Saved:
		j.logger.Debug().Msg("automatic sync saved")
	}
}
