package server

import (
	"sync"
	"time"

	"github.com/tracktitans/railstation/simulation"
)

// Defaults/tuning for realtime KPIs.
const (
	defaultThroughputWindow = 60 * time.Minute
	defaultDenialWindow     = 15 * time.Minute
)

type kpiSnapshot struct {
	ts          time.Time
	throughput  int
	denialRate  float64
	stuckCount  int
	utilization float64
	performance float64
}

type despawnEvent struct{ ts time.Time }
type denialPoint struct {
	ts     time.Time
	denied bool
}

type metricsState struct {
	mu sync.RWMutex

	despawns []despawnEvent
	denials  []denialPoint

	stuckCount int

	snapshots []kpiSnapshot
}

var metrics = &metricsState{}

// updateMetrics folds one simulation Event into the rolling KPI windows.
func updateMetrics(e *simulation.Event) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	now := time.Now().UTC()
	switch e.Name {
	case simulation.TrainDespawnedEvent:
		metrics.despawns = append(metrics.despawns, despawnEvent{ts: now})
		trimDespawnsLocked()
	case simulation.TrainDeniedEvent:
		metrics.denials = append(metrics.denials, denialPoint{ts: now, denied: true})
		trimDenialsLocked()
	case simulation.TickCompletedEvent:
		metrics.denials = append(metrics.denials, denialPoint{ts: now, denied: false})
		trimDenialsLocked()
	case simulation.TrainStuckEvent:
		metrics.stuckCount++
	case simulation.TrainReplannedEvent:
		if metrics.stuckCount > 0 {
			metrics.stuckCount--
		}
	}
}

func trimDespawnsLocked() {
	cutoff := time.Now().UTC().Add(-defaultThroughputWindow)
	i := 0
	for ; i < len(metrics.despawns); i++ {
		if metrics.despawns[i].ts.After(cutoff) {
			break
		}
	}
	if i > 0 {
		metrics.despawns = append([]despawnEvent{}, metrics.despawns[i:]...)
	}
}

func trimDenialsLocked() {
	cutoff := time.Now().UTC().Add(-defaultDenialWindow)
	i := 0
	for ; i < len(metrics.denials); i++ {
		if metrics.denials[i].ts.After(cutoff) {
			break
		}
	}
	if i > 0 {
		metrics.denials = append([]denialPoint{}, metrics.denials[i:]...)
	}
}

// takeSnapshot computes instantaneous KPIs and appends them to the
// historical series polled by aggregateKPIs.
func takeSnapshot() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	occupied := 0
	total := 0
	if sim != nil {
		snap := sim.LatestSnapshotForMetrics()
		total = sim.TotalSections()
		occupied = len(snap.Wagons)
	}
	util := 0.0
	if total > 0 {
		util = float64(occupied) * 100.0 / float64(total)
	}

	cutoff := time.Now().UTC().Add(-defaultThroughputWindow)
	tp := 0
	for _, d := range metrics.despawns {
		if d.ts.After(cutoff) {
			tp++
		}
	}

	denied, decisions := 0, 0
	for _, d := range metrics.denials {
		decisions++
		if d.denied {
			denied++
		}
	}
	denialRate := 0.0
	if decisions > 0 {
		denialRate = float64(denied) * 100.0 / float64(decisions)
	}

	performance := 100.0 - denialRate
	if performance < 0 {
		performance = 0
	}

	snap := kpiSnapshot{
		ts:          time.Now().UTC(),
		throughput:  tp,
		denialRate:  denialRate,
		stuckCount:  metrics.stuckCount,
		utilization: util,
		performance: performance,
	}
	metrics.snapshots = append(metrics.snapshots, snap)
	if len(metrics.snapshots) > 1440 {
		metrics.snapshots = metrics.snapshots[len(metrics.snapshots)-1440:]
	}
}

func startMetricsTicker() {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		for range ticker.C {
			takeSnapshot()
		}
	}()
}

// aggregateKPIs averages the historical series over rangeDur and returns a
// trend comparing the most recent tenth against the one before it.
func aggregateKPIs(rangeDur time.Duration) (kpiSnapshot, kpiSnapshot) {
	metrics.mu.RLock()
	defer metrics.mu.RUnlock()
	if len(metrics.snapshots) == 0 {
		return kpiSnapshot{ts: time.Now().UTC()}, kpiSnapshot{}
	}
	cutoff := time.Now().UTC().Add(-rangeDur)
	var agg kpiSnapshot
	count := 0
	for _, s := range metrics.snapshots {
		if s.ts.Before(cutoff) {
			continue
		}
		agg.throughput += s.throughput
		agg.denialRate += s.denialRate
		agg.stuckCount += s.stuckCount
		agg.utilization += s.utilization
		agg.performance += s.performance
		count++
	}
	if count > 0 {
		agg.denialRate /= float64(count)
		agg.utilization /= float64(count)
		agg.performance /= float64(count)
	}
	if len(metrics.snapshots) < 10 {
		return agg, kpiSnapshot{}
	}
	n := len(metrics.snapshots)
	w := n / 10
	if w < 1 {
		w = 1
	}
	cur := averageSlice(metrics.snapshots[n-w:])
	prev := averageSlice(metrics.snapshots[maxInt(0, n-2*w):n-w])
	trend := kpiSnapshot{
		throughput:  cur.throughput - prev.throughput,
		denialRate:  cur.denialRate - prev.denialRate,
		stuckCount:  cur.stuckCount - prev.stuckCount,
		utilization: cur.utilization - prev.utilization,
		performance: cur.performance - prev.performance,
	}
	return agg, trend
}

func averageSlice(ss []kpiSnapshot) kpiSnapshot {
	var a kpiSnapshot
	if len(ss) == 0 {
		return a
	}
	for _, s := range ss {
		a.throughput += s.throughput
		a.denialRate += s.denialRate
		a.stuckCount += s.stuckCount
		a.utilization += s.utilization
		a.performance += s.performance
	}
	a.denialRate /= float64(len(ss))
	a.utilization /= float64(len(ss))
	a.performance /= float64(len(ss))
	return a
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
