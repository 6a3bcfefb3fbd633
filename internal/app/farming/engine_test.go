package farming

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmstead/internal/app/ports"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
)

func TestPlant_InsufficientInvestmentReportsMinimum(t *testing.T) {
	rig := newTestRig()

	_, err := rig.plant("alice", farm.ClassSprout, 100, 100, 5)

	var insufficient *InsufficientInvestmentError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10.0, insufficient.Minimum)
	assert.Equal(t, ReasonInsufficientInvestment, ReasonCode(err))
	assert.Equal(t, 1, rig.metrics.rejected(opPlant, ReasonInsufficientInvestment))

	n, _ := rig.plots.CountByOwner(context.Background(), "alice", nil)
	assert.Zero(t, n)
}

func TestPlant_UnknownClass(t *testing.T) {
	rig := newTestRig()

	_, err := rig.plant("alice", "cactus", 0, 0, 500)

	var invalid *InvalidPlotClassError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, farm.PlotClass("cactus"), invalid.Class)
	assert.ElementsMatch(t, []farm.PlotClass{farm.ClassSprout, farm.ClassOrchard, farm.ClassGrove}, invalid.Known)
}

func TestPlant_NormalizesClassName(t *testing.T) {
	rig := newTestRig()

	plot, err := rig.plant("alice", " Orchard ", 0, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, farm.ClassOrchard, plot.Class)
	assert.Equal(t, 72*time.Hour, plot.GrowthDuration)
}

func TestPlant_RejectsMalformedRequests(t *testing.T) {
	rig := newTestRig()
	cases := []PlantRequest{
		{OwnerID: "", Class: farm.ClassSprout, InvestmentAmount: 100},
		{OwnerID: "alice", Class: farm.ClassSprout, InvestmentAmount: 0},
		{OwnerID: "alice", Class: farm.ClassSprout, InvestmentAmount: -10},
		{OwnerID: "alice", Class: farm.ClassSprout, X: math.NaN(), InvestmentAmount: 100},
	}
	for _, req := range cases {
		_, err := rig.engine.Plant(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "request %+v", req)
	}
}

func TestPlant_PersistsPlotAndAwardsExperience(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	plot, err := rig.plant("alice", farm.ClassGrove, 1234.5, -50, 1055)
	require.NoError(t, err)

	assert.Equal(t, "plot-1", plot.ID)
	assert.Equal(t, spatial.Cell{X: 12, Y: -1}, plot.Cell())
	assert.Equal(t, testEpoch, plot.PlantedAt)
	assert.False(t, plot.Harvested)
	assert.Nil(t, plot.YieldAmount)

	stored, err := rig.plots.GetByID(ctx, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, plot.InvestmentAmount, stored.InvestmentAmount)

	owner, err := rig.owners.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 105, owner.Experience)
	assert.EqualValues(t, 2, owner.Level())
	assert.Equal(t, "alice", owner.DisplayName)
	assert.Equal(t, 1, rig.metrics.plants[farm.ClassGrove])
}

func TestPlant_CollisionWithinRadius(t *testing.T) {
	rig := newTestRig()

	first, err := rig.plant("alice", farm.ClassSprout, 100, 100, 50)
	require.NoError(t, err)

	_, err = rig.plant("bob", farm.ClassSprout, 120, 100, 50)
	var occupied *PositionOccupiedError
	require.ErrorAs(t, err, &occupied)
	assert.Equal(t, first.ID, occupied.BlockingPlotID)
	assert.Equal(t, 1, rig.metrics.rejected(opPlant, ReasonPositionOccupied))

	_, err = rig.plant("bob", farm.ClassSprout, 150.01, 100, 50)
	assert.NoError(t, err)
}

func TestPlant_CollisionIsSymmetricAcrossCells(t *testing.T) {
	rig := newTestRig()

	_, err := rig.plant("alice", farm.ClassSprout, 99, 99, 50)
	require.NoError(t, err)
	_, err = rig.plant("bob", farm.ClassSprout, 101, 101, 50)
	assert.ErrorIs(t, err, ErrPositionOccupied)

	other := newTestRig()
	_, err = other.plant("bob", farm.ClassSprout, 101, 101, 50)
	require.NoError(t, err)
	_, err = other.plant("alice", farm.ClassSprout, 99, 99, 50)
	assert.ErrorIs(t, err, ErrPositionOccupied)
}

func TestPlant_HarvestedPlotFreesPosition(t *testing.T) {
	rig := newTestRig()

	plot, err := rig.plant("alice", farm.ClassSprout, 0, 0, 100)
	require.NoError(t, err)
	rig.clock.Advance(24 * time.Hour)
	_, err = rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	require.NoError(t, err)

	_, err = rig.plant("bob", farm.ClassSprout, 0, 0, 100)
	assert.NoError(t, err)
}

func TestPlant_OwnerWriteFailureRollsBackPlot(t *testing.T) {
	rig := newTestRig()
	rig.engine.Owners = failingOwners{OwnerRepo: rig.owners, err: errDiskFull}
	ctx := context.Background()

	_, err := rig.plant("alice", farm.ClassSprout, 10, 10, 100)

	require.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, ReasonTransactionFailed, ReasonCode(err))
	assert.False(t, IsRejection(err))
	assert.Equal(t, 1, rig.metrics.failures[opPlant])

	n, err := rig.plots.CountByOwner(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	exists, _ := rig.owners.Exists(ctx, "alice")
	assert.False(t, exists)
	available, err := rig.engine.IsAvailable(ctx, 10, 10, 0)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestPlant_PlotWriteFailureLeavesOwnerUntouched(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	_, err := rig.plant("alice", farm.ClassSprout, 0, 0, 100)
	require.NoError(t, err)
	rig.engine.Plots = failingPlots{PlotRepo: rig.plots, err: errDiskFull}

	_, err = rig.plant("alice", farm.ClassSprout, 500, 500, 100)
	require.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, errDiskFull)

	alice, err := rig.owners.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), alice.Experience)

	_, err = rig.plant("bob", farm.ClassGrove, 900, 900, 1000)
	require.ErrorIs(t, err, ErrTransactionFailed)
	exists, err := rig.owners.Exists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := rig.plots.CountByOwner(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, rig.metrics.failures[opPlant])
}

func TestPlant_RejectsCoordinatesOutsideCellRange(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	for _, pos := range [][2]float64{{1e21, 0}, {9.3e20, 0}, {0, -1e21}, {float64(spatial.MaxCellIndex+1) * 100, 0}} {
		_, err := rig.plant("alice", farm.ClassSprout, pos[0], pos[1], 100)
		require.ErrorIs(t, err, ErrInvalidRequest, "position %v", pos)
		_, err = rig.plant("bob", farm.ClassSprout, pos[0], pos[1], 100)
		require.ErrorIs(t, err, ErrInvalidRequest, "position %v", pos)

		_, err = rig.engine.IsAvailable(ctx, pos[0], pos[1], 0)
		assert.ErrorIs(t, err, ErrInvalidRequest, "position %v", pos)
	}
	n, err := rig.plots.CountByOwner(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 8, rig.metrics.rejected(opPlant, ReasonInvalidRequest))
}

func TestPlant_FarEdgeOfCellRangeStillCollides(t *testing.T) {
	rig := newTestRig()
	x := float64(spatial.MaxCellIndex) * 100

	plot, err := rig.plant("alice", farm.ClassSprout, x, -x, 100)
	require.NoError(t, err)
	assert.Equal(t, spatial.MaxCellIndex, plot.GridX)
	assert.Equal(t, -spatial.MaxCellIndex, plot.GridY)

	_, err = rig.plant("bob", farm.ClassSprout, x, -x, 100)
	var occupied *PositionOccupiedError
	require.ErrorAs(t, err, &occupied)
	assert.Equal(t, plot.ID, occupied.BlockingPlotID)

	plots, err := rig.engine.PlotsInArea(context.Background(), AreaQuery{
		Rect: spatial.Rect{MinX: -1e300, MinY: -1e300, MaxX: 1e300, MaxY: 1e300},
	})
	require.NoError(t, err)
	require.Len(t, plots, 1)
	assert.Equal(t, plot.ID, plots[0].ID)
}

func TestPlant_InsideOpenTransactionFails(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	err := rig.engine.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := rig.engine.Plant(txCtx, PlantRequest{
			OwnerID:          "alice",
			Class:            farm.ClassSprout,
			InvestmentAmount: 100,
		})
		return err
	})

	require.ErrorIs(t, err, ports.ErrNestedTx)
	assert.ErrorIs(t, err, ErrTransactionFailed)
	n, _ := rig.plots.CountByOwner(ctx, "alice", nil)
	assert.Zero(t, n)
}

func TestPlant_ConcurrentSameSpotHasOneWinner(t *testing.T) {
	rig := newTestRig()
	const racers = 12

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		occupied int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rig.plant("racer", farm.ClassSprout, 500, 500, 100)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrPositionOccupied):
				occupied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, occupied)
	owner, err := rig.owners.GetByID(context.Background(), "racer")
	require.NoError(t, err)
	assert.EqualValues(t, 10, owner.Experience)
}

func TestHarvest_BeforeMaturity(t *testing.T) {
	rig := newTestRig()
	plot, err := rig.plant("alice", farm.ClassSprout, 100, 100, 1000)
	require.NoError(t, err)

	_, err = rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})

	var notMature *NotMatureError
	require.ErrorAs(t, err, &notMature)
	assert.Equal(t, 24*time.Hour, notMature.Remaining)
	assert.Equal(t, 0.0, notMature.Progress)

	rig.clock.Advance(24*time.Hour - time.Nanosecond)
	_, err = rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	assert.ErrorIs(t, err, ErrNotMature)
}

func TestHarvest_AtMaturityPaysLinearYield(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	plot, err := rig.plant("alice", farm.ClassSprout, 100, 100, 1000)
	require.NoError(t, err)

	rig.clock.Advance(24 * time.Hour)
	res, err := rig.engine.Harvest(ctx, HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	require.NoError(t, err)

	// 1000 * 0.05 * (1/365)
	assert.Equal(t, 0.14, res.YieldAmount)
	assert.Equal(t, testEpoch.Add(24*time.Hour), res.HarvestedAt)

	stored, err := rig.plots.GetByID(ctx, plot.ID)
	require.NoError(t, err)
	assert.True(t, stored.Harvested)
	require.NotNil(t, stored.YieldAmount)
	assert.Equal(t, 0.14, *stored.YieldAmount)
	assert.NoError(t, stored.Validate())
	assert.Equal(t, 0.14, rig.metrics.harvests[farm.ClassSprout])
}

func TestHarvest_FullYearOfGrove(t *testing.T) {
	rig := newTestRig()
	plot, err := rig.plant("alice", farm.ClassGrove, 0, 0, 1000)
	require.NoError(t, err)

	rig.clock.Advance(farm.YearDuration)
	res, err := rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 150.0, res.YieldAmount)
}

func TestHarvest_OnlyOnce(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	plot, err := rig.plant("alice", farm.ClassSprout, 0, 0, 100)
	require.NoError(t, err)
	rig.clock.Advance(48 * time.Hour)

	first, err := rig.engine.Harvest(ctx, HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	require.NoError(t, err)

	rig.clock.Advance(time.Hour)
	_, err = rig.engine.Harvest(ctx, HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	assert.ErrorIs(t, err, ErrAlreadyHarvested)

	stored, err := rig.plots.GetByID(ctx, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, first.YieldAmount, *stored.YieldAmount)
	assert.Equal(t, first.HarvestedAt, *stored.HarvestedAt)
}

func TestHarvest_ConcurrentCallsPayOnce(t *testing.T) {
	rig := newTestRig()
	plot, err := rig.plant("alice", farm.ClassSprout, 0, 0, 100)
	require.NoError(t, err)
	rig.clock.Advance(30 * time.Hour)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestHarvest_Rejections(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	plot, err := rig.plant("alice", farm.ClassSprout, 0, 0, 100)
	require.NoError(t, err)
	rig.clock.Advance(25 * time.Hour)

	_, err = rig.engine.Harvest(ctx, HarvestRequest{PlotID: "nope", OwnerID: "alice"})
	assert.ErrorIs(t, err, ErrPlotNotFound)

	_, err = rig.engine.Harvest(ctx, HarvestRequest{PlotID: plot.ID, OwnerID: "bob"})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, ReasonNotOwner, ReasonCode(err))

	_, err = rig.engine.Harvest(ctx, HarvestRequest{PlotID: " ", OwnerID: "alice"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	stored, err := rig.plots.GetByID(ctx, plot.ID)
	require.NoError(t, err)
	assert.False(t, stored.Harvested)
}

func TestHarvest_ClockSkewIsClampedAndRecorded(t *testing.T) {
	rig := newTestRig()
	classes := farm.DefaultClassTable()
	classes["instant"] = farm.ClassSpec{MinInvestment: 1, GrowthDuration: 0, BaseYieldRate: 0.5}
	rig.engine.Yield = farm.NewYieldCalculator(classes)

	plot, err := rig.plant("alice", "instant", 0, 0, 100)
	require.NoError(t, err)
	rig.clock.Advance(-time.Hour)

	res, err := rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.YieldAmount)
	assert.Equal(t, plot.PlantedAt, res.HarvestedAt)
	assert.Equal(t, 1, rig.metrics.skews)
}

func TestHarvest_StoreFailureIsTransactionFailed(t *testing.T) {
	rig := newTestRig()
	plot, err := rig.plant("alice", farm.ClassSprout, 0, 0, 100)
	require.NoError(t, err)
	rig.clock.Advance(25 * time.Hour)
	rig.engine.Plots = failingPlots{PlotRepo: rig.plots, err: errDiskFull}

	_, err = rig.engine.Harvest(context.Background(), HarvestRequest{PlotID: plot.ID, OwnerID: "alice"})
	require.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, errDiskFull)

	stored, err := rig.plots.GetByID(context.Background(), plot.ID)
	require.NoError(t, err)
	assert.False(t, stored.Harvested)
}

func TestPlant_WallClockGrowthContinuesAcrossRestart(t *testing.T) {
	rig := newTestRig()
	plot, err := rig.plant("alice", farm.ClassOrchard, 0, 0, 100)
	require.NoError(t, err)

	restarted := rig.engine
	restarted.Now = func() time.Time { return testEpoch.Add(72 * time.Hour) }
	assert.True(t, restarted.IsMature(plot))
	assert.Equal(t, 100.0, restarted.Progress(plot))
}
