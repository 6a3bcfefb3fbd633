package inmemory

import (
	"sync"

	"farmstead/internal/domain/farm"
)

type ClassSnapshot struct {
	Planted   uint64  `json:"planted"`
	Harvested uint64  `json:"harvested"`
	Invested  float64 `json:"invested"`
	Yield     float64 `json:"yield"`
}

type Snapshot struct {
	PlantTotal     uint64                   `json:"plant_total"`
	HarvestTotal   uint64                   `json:"harvest_total"`
	RejectionTotal uint64                   `json:"rejection_total"`
	FailureTotal   uint64                   `json:"failure_total"`
	ClockSkewTotal uint64                   `json:"clock_skew_total"`
	ByClass        map[string]ClassSnapshot `json:"by_class"`
	ByReason       map[string]uint64        `json:"by_reason"`
	FailuresByOp   map[string]uint64        `json:"failures_by_op"`
}

// Recorder keeps farm KPIs in process for the ops endpoint.
type Recorder struct {
	mu        sync.Mutex
	skews     uint64
	byClass   map[string]ClassSnapshot
	byReason  map[string]uint64
	failureOp map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byClass:   map[string]ClassSnapshot{},
		byReason:  map[string]uint64{},
		failureOp: map[string]uint64{},
	}
}

func (r *Recorder) RecordPlant(class farm.PlotClass, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byClass[string(class)]
	c.Planted++
	c.Invested += amount
	r.byClass[string(class)] = c
}

func (r *Recorder) RecordHarvest(class farm.PlotClass, yieldAmount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byClass[string(class)]
	c.Harvested++
	c.Yield += yieldAmount
	r.byClass[string(class)] = c
}

func (r *Recorder) RecordRejection(_ string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byReason[reason]++
}

func (r *Recorder) RecordFailure(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureOp[op]++
}

func (r *Recorder) RecordClockSkew() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skews++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ClockSkewTotal: r.skews,
		ByClass:        make(map[string]ClassSnapshot, len(r.byClass)),
		ByReason:       make(map[string]uint64, len(r.byReason)),
		FailuresByOp:   make(map[string]uint64, len(r.failureOp)),
	}
	for k, v := range r.byClass {
		out.ByClass[k] = v
		out.PlantTotal += v.Planted
		out.HarvestTotal += v.Harvested
	}
	for k, v := range r.byReason {
		out.ByReason[k] = v
		out.RejectionTotal += v
	}
	for k, v := range r.failureOp {
		out.FailuresByOp[k] = v
		out.FailureTotal += v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
