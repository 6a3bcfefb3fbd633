package farming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"farmstead/internal/adapter/repo/memory"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
)

var testEpoch = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMetrics struct {
	mu         sync.Mutex
	plants     map[farm.PlotClass]int
	harvests   map[farm.PlotClass]float64
	rejections map[string]int
	failures   map[string]int
	skews      int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		plants:     map[farm.PlotClass]int{},
		harvests:   map[farm.PlotClass]float64{},
		rejections: map[string]int{},
		failures:   map[string]int{},
	}
}

func (m *recordingMetrics) RecordPlant(class farm.PlotClass, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plants[class]++
}

func (m *recordingMetrics) RecordHarvest(class farm.PlotClass, yieldAmount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.harvests[class] += yieldAmount
}

func (m *recordingMetrics) RecordRejection(op, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[op+"/"+reason]++
}

func (m *recordingMetrics) RecordFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op]++
}

func (m *recordingMetrics) RecordClockSkew() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skews++
}

func (m *recordingMetrics) rejected(op, reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejections[op+"/"+reason]
}

// failingOwners wraps a working repository and fails every Save.
type failingOwners struct {
	memory.OwnerRepo
	err error
}

func (f failingOwners) Save(context.Context, farm.Owner) error {
	return f.err
}

var errDiskFull = errors.New("disk full")

type testRig struct {
	engine  Engine
	store   *memory.Store
	plots   memory.PlotRepo
	owners  memory.OwnerRepo
	clock   *fakeClock
	metrics *recordingMetrics
}

func newTestRig() *testRig {
	grid := spatial.NewGrid(100)
	store := memory.NewStore(grid)
	clock := newFakeClock()
	metrics := newRecordingMetrics()
	var seq atomic.Int64
	rig := &testRig{
		store:   store,
		plots:   memory.NewPlotRepo(store),
		owners:  memory.NewOwnerRepo(store),
		clock:   clock,
		metrics: metrics,
	}
	rig.engine = Engine{
		TxManager:       memory.NewTxManager(store),
		Plots:           rig.plots,
		Owners:          rig.owners,
		Metrics:         metrics,
		Grid:            grid,
		Yield:           farm.NewYieldCalculator(nil),
		CollisionRadius: 50,
		Now:             clock.Now,
		NewID: func() string {
			return fmt.Sprintf("plot-%d", seq.Add(1))
		},
	}
	return rig
}

func (r *testRig) plant(owner string, class farm.PlotClass, x, y, amount float64) (farm.Plot, error) {
	return r.engine.Plant(context.Background(), PlantRequest{
		OwnerID:          owner,
		Class:            class,
		X:                x,
		Y:                y,
		InvestmentAmount: amount,
	})
}

type failingPlots struct {
	memory.PlotRepo
	err error
}

func (f failingPlots) Save(context.Context, farm.Plot) error {
	return f.err
}
