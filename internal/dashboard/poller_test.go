package dashboard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/retail-vision/dashboard/internal/analytics"
)

type fakeSource struct {
	mu      sync.Mutex
	kpis    []analytics.KPISample
	kpiErr  error
	report  *analytics.SituationReport
	situErr error
	calls   int
}

func (f *fakeSource) FetchKPIs(ctx context.Context, branchID string, limit int) ([]analytics.KPISample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.kpiErr != nil {
		return nil, f.kpiErr
	}
	out := make([]analytics.KPISample, len(f.kpis))
	copy(out, f.kpis)
	return out, nil
}

func (f *fakeSource) FetchSituation(ctx context.Context, branchID string) (*analytics.SituationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.situErr != nil {
		return nil, f.situErr
	}
	report := *f.report
	return &report, nil
}

func (f *fakeSource) set(kpis []analytics.KPISample, report *analytics.SituationReport, kpiErr, situErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.kpis = kpis
	f.report = report
	f.kpiErr = kpiErr
	f.situErr = situErr
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func sampleReport(situation string) *analytics.SituationReport {
	return &analytics.SituationReport{
		Situation: analytics.Situation{Situation: situation, Severity: 0.5, Details: "d"},
		Recommendations: []analytics.Recommendation{
			{Action: "Open lane 3", Priority: "high", ExpectedImpact: "shorter queues"},
		},
	}
}

func TestPollCycleAppliesBothHalves(t *testing.T) {
	source := &fakeSource{}
	source.set(
		[]analytics.KPISample{{TrafficIndex: 1}, {TrafficIndex: 2}},
		sampleReport("normal"),
		nil, nil,
	)

	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, time.Minute)

	p.runCycle(0)

	snap := store.Snapshot()
	if len(snap.KPIs) != 2 {
		t.Fatalf("expected 2 kpi samples, got %d", len(snap.KPIs))
	}
	if snap.Situation.Situation != "normal" {
		t.Errorf("expected situation normal, got %q", snap.Situation.Situation)
	}
	if len(snap.Recommendations) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(snap.Recommendations))
	}
	if snap.KPIsUpdatedAt.IsZero() || snap.SituationUpdatedAt.IsZero() {
		t.Error("expected freshness stamps to be set")
	}
}

func TestFailedCycleKeepsPriorStateUntouched(t *testing.T) {
	source := &fakeSource{}
	source.set(
		[]analytics.KPISample{{TrafficIndex: 7}},
		sampleReport("crowding"),
		nil, nil,
	)

	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, time.Minute)

	p.runCycle(0)
	before := store.Snapshot()

	source.set(nil, nil, errors.New("analytics down"), errors.New("analytics down"))
	p.runCycle(1)

	after := store.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("state changed after failed cycle:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestPartialFailureUpdatesOnlyHealthyHalf(t *testing.T) {
	source := &fakeSource{}
	source.set(
		[]analytics.KPISample{{TrafficIndex: 7}},
		sampleReport("normal"),
		nil, nil,
	)

	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, time.Minute)

	p.runCycle(0)

	source.set(
		[]analytics.KPISample{{TrafficIndex: 9}},
		sampleReport("crowding"),
		errors.New("kpi endpoint down"), nil,
	)
	p.runCycle(1)

	snap := store.Snapshot()
	if snap.KPIs[0].TrafficIndex != 7 {
		t.Errorf("expected stale kpis retained, got traffic_index %v", snap.KPIs[0].TrafficIndex)
	}
	if snap.Situation.Situation != "crowding" {
		t.Errorf("expected situation updated, got %q", snap.Situation.Situation)
	}
}

func TestSlowCycleLosesLatestWinsRace(t *testing.T) {
	source := &fakeSource{}
	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, time.Minute)

	source.set([]analytics.KPISample{{TrafficIndex: 2}}, sampleReport("newer"), nil, nil)
	p.runCycle(1)

	// An older cycle finishing late must be discarded, not applied.
	source.set([]analytics.KPISample{{TrafficIndex: 1}}, sampleReport("older"), nil, nil)
	p.runCycle(0)

	snap := store.Snapshot()
	if snap.KPIs[0].TrafficIndex != 2 {
		t.Errorf("stale cycle overwrote newer kpis: %v", snap.KPIs[0].TrafficIndex)
	}
	if snap.Situation.Situation != "newer" {
		t.Errorf("stale cycle overwrote newer situation: %q", snap.Situation.Situation)
	}
	if p.Discarded() != 2 {
		t.Errorf("expected 2 discarded halves, got %d", p.Discarded())
	}
}

func TestStartPollsImmediatelyAndStopHalts(t *testing.T) {
	source := &fakeSource{}
	source.set([]analytics.KPISample{{TrafficIndex: 1}}, sampleReport("normal"), nil, nil)

	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, 10*time.Millisecond)

	p.Start()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if source.callCount() >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if source.callCount() < 2 {
		t.Fatal("expected at least two poll cycles before deadline")
	}

	p.Stop()
	callsAtStop := source.callCount()
	time.Sleep(50 * time.Millisecond)

	if source.callCount() != callsAtStop {
		t.Errorf("poll cycles continued after Stop: %d -> %d", callsAtStop, source.callCount())
	}
}

func TestStopIsIdempotentAndBlocksLateApplies(t *testing.T) {
	source := &fakeSource{}
	source.set([]analytics.KPISample{{TrafficIndex: 1}}, sampleReport("normal"), nil, nil)

	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, time.Minute)

	p.Start()
	p.Stop()
	p.Stop()

	before := store.Snapshot()
	p.runCycle(99)
	after := store.Snapshot()

	if !reflect.DeepEqual(before.KPIs, after.KPIs) {
		t.Error("cycle applied after Stop")
	}
}

func TestOnCycleHookReceivesSnapshot(t *testing.T) {
	source := &fakeSource{}
	source.set([]analytics.KPISample{{TrafficIndex: 4}}, sampleReport("normal"), nil, nil)

	store := NewStore("SUC001")
	p := NewPoller(source, store, "SUC001", 20, time.Minute)

	got := make(chan Snapshot, 1)
	p.OnCycle(func(s Snapshot) {
		select {
		case got <- s:
		default:
		}
	})

	p.runCycle(0)

	select {
	case snap := <-got:
		if len(snap.KPIs) != 1 || snap.KPIs[0].TrafficIndex != 4 {
			t.Errorf("hook received wrong snapshot: %+v", snap.KPIs)
		}
	default:
		t.Fatal("cycle hook was not invoked")
	}
}
