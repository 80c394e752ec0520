package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/analytics"
	"github.com/retail-vision/dashboard/internal/metrics"
	"github.com/retail-vision/dashboard/pkg/logger"
)

// AnalyticsSource is the read side of the analytics service consumed by the
// poll loop.
type AnalyticsSource interface {
	FetchKPIs(ctx context.Context, branchID string, limit int) ([]analytics.KPISample, error)
	FetchSituation(ctx context.Context, branchID string) (*analytics.SituationReport, error)
}

// Poller refreshes the store from the analytics service: one cycle
// immediately on Start, then one per interval until Stop. The two reads of a
// cycle are independent; a failed read leaves its half of the state stale and
// is never fatal.
//
// Cycles are numbered and each half is applied only if no newer cycle already
// applied that half (latest-wins). A slow cycle that loses the race is
// discarded and counted, never applied.
type Poller struct {
	source   AnalyticsSource
	store    *Store
	branchID string
	kpiLimit int
	interval time.Duration
	onCycle  func(Snapshot)

	mu        sync.Mutex
	stopped   bool
	nextSeq   uint64
	kpiSeq    uint64
	situSeq   uint64
	discarded uint64
	stop      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewPoller(source AnalyticsSource, store *Store, branchID string, kpiLimit int, interval time.Duration) *Poller {
	return &Poller{
		source:   source,
		store:    store,
		branchID: branchID,
		kpiLimit: kpiLimit,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// OnCycle registers a hook invoked with a fresh snapshot after every cycle.
// Must be called before Start.
func (p *Poller) OnCycle(fn func(Snapshot)) {
	p.onCycle = fn
}

func (p *Poller) Start() {
	p.startOnce.Do(func() {
		p.wg.Add(1)
		go p.loop()
	})
}

// Stop cancels the repeating poll and waits for the loop and any in-flight
// cycle to finish. Idempotent. Results of cycles still in flight are not
// applied after Stop returns.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		close(p.stop)
	})
	p.wg.Wait()
}

func (p *Poller) loop() {
	defer p.wg.Done()

	p.spawnCycle()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.spawnCycle()
		}
	}
}

// spawnCycle runs one cycle in its own goroutine so a slow upstream never
// delays the schedule; the sequence guard keeps overlapping cycles ordered.
func (p *Poller) spawnCycle() {
	p.mu.Lock()
	seq := p.nextSeq
	p.nextSeq++
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runCycle(seq)
	}()
}

func (p *Poller) runCycle(seq uint64) {
	start := time.Now()
	ctx := context.Background()

	var inner sync.WaitGroup
	var kpiErr, situErr error

	inner.Add(2)

	go func() {
		defer inner.Done()

		samples, err := p.source.FetchKPIs(ctx, p.branchID, p.kpiLimit)
		if err != nil {
			kpiErr = err
			return
		}
		if !p.applyKPIs(seq, samples) {
			metrics.PollCyclesDiscarded.Inc()
		}
	}()

	go func() {
		defer inner.Done()

		report, err := p.source.FetchSituation(ctx, p.branchID)
		if err != nil {
			situErr = err
			return
		}
		if !p.applySituation(seq, report) {
			metrics.PollCyclesDiscarded.Inc()
		}
	}()

	inner.Wait()

	status := "ok"
	if kpiErr != nil {
		status = "degraded"
		metrics.PollHalfStale.WithLabelValues("kpis").Inc()
		logger.Warn("KPI fetch failed, keeping stale state",
			zap.Uint64("cycle", seq),
			zap.Error(kpiErr),
		)
	}
	if situErr != nil {
		status = "degraded"
		metrics.PollHalfStale.WithLabelValues("situation").Inc()
		logger.Warn("Situation fetch failed, keeping stale state",
			zap.Uint64("cycle", seq),
			zap.Error(situErr),
		)
	}
	if kpiErr != nil && situErr != nil {
		status = "failed"
	}

	metrics.PollCycles.WithLabelValues(status).Inc()
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	logger.Debug("Poll cycle finished",
		zap.Uint64("cycle", seq),
		zap.String("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)

	p.notify()
}

func (p *Poller) applyKPIs(seq uint64, samples []analytics.KPISample) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || seq < p.kpiSeq {
		p.discarded++
		return false
	}
	p.kpiSeq = seq
	p.store.ReplaceKPIs(samples, time.Now())
	return true
}

func (p *Poller) applySituation(seq uint64, report *analytics.SituationReport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || seq < p.situSeq {
		p.discarded++
		return false
	}
	p.situSeq = seq
	p.store.ReplaceSituation(report, time.Now())
	return true
}

func (p *Poller) notify() {
	p.mu.Lock()
	stopped := p.stopped
	fn := p.onCycle
	p.mu.Unlock()

	if stopped || fn == nil {
		return
	}
	fn(p.store.Snapshot())
}

// Discarded reports how many cycle halves lost the latest-wins race.
func (p *Poller) Discarded() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.discarded
}
