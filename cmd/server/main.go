package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	httpadapter "farmstead/internal/adapter/http"
	"farmstead/internal/adapter/metrics"
	metricsinmem "farmstead/internal/adapter/metrics/inmemory"
	metricsprom "farmstead/internal/adapter/metrics/prom"
	gormrepo "farmstead/internal/adapter/repo/gorm"
	"farmstead/internal/adapter/repo/memory"
	"farmstead/internal/app/farming"
	"farmstead/internal/app/ports"
	"farmstead/internal/config"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
	"farmstead/internal/logger"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "farmstead",
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})

	ctx := context.Background()
	st, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("build stores", "store", cfg.Store, "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h := buildHandler(cfg, st, metricsprom.NewRecorder(reg), time.Now)
	h.Metrics = adaptor.HertzHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s := server.Default(server.WithHostPorts(cfg.Addr()))
	h.RegisterRoutes(s.Engine)

	log.Info("farmstead server listening",
		"addr", cfg.Addr(),
		"store", cfg.Store,
		"grid_size", cfg.GridSize,
		"collision_radius", cfg.CollisionRadius,
		"classes", len(cfg.Classes),
	)
	s.Spin()
}

type stores struct {
	grid   spatial.Grid
	tx     ports.TxManager
	plots  ports.PlotRepository
	owners ports.OwnerRepository
}

func buildStores(ctx context.Context, cfg *config.Config) (stores, error) {
	grid := spatial.NewGrid(cfg.GridSize)
	switch cfg.Store {
	case config.StoreMemory:
		s := memory.NewStore(grid)
		slog.Warn("using in-memory store, state is lost on restart")
		return stores{
			grid:   grid,
			tx:     memory.NewTxManager(s),
			plots:  memory.NewPlotRepo(s),
			owners: memory.NewOwnerRepo(s),
		}, nil
	case config.StorePostgres:
		db, err := gormrepo.OpenPostgres(cfg.DBDSN)
		if err != nil {
			return stores{}, err
		}
		if cfg.Migrate {
			if err := gormrepo.ApplyMigrations(ctx, db); err != nil {
				return stores{}, err
			}
		}
		version, err := gormrepo.SchemaVersion(ctx, db)
		if err != nil {
			return stores{}, fmt.Errorf("read schema version: %w (run with FARMSTEAD_MIGRATE=true?)", err)
		}
		slog.Info("postgres store ready", "schema_version", version)
		return stores{
			grid:   grid,
			tx:     gormrepo.NewTxManager(db),
			plots:  gormrepo.NewPlotRepo(db, grid),
			owners: gormrepo.NewOwnerRepo(db),
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// buildHandler wires the engine and both metrics sinks. The in-memory recorder
// also backs /ops/kpi.
func buildHandler(cfg *config.Config, st stores, prom *metricsprom.Recorder, now func() time.Time) httpadapter.Handler {
	kpi := metricsinmem.NewRecorder()
	sinks := metrics.Multi{kpi}
	if prom != nil {
		sinks = append(sinks, prom)
	}
	engine := farming.Engine{
		TxManager:       st.tx,
		Plots:           st.plots,
		Owners:          st.owners,
		Metrics:         sinks,
		Grid:            st.grid,
		Yield:           farm.NewYieldCalculator(cfg.Classes),
		CollisionRadius: cfg.CollisionRadius,
		Now:             now,
		NewID:           uuid.NewString,
	}
	h := httpadapter.Handler{
		Farm:     engine,
		KPI:      kpi,
		AdminKey: cfg.AdminKey,
	}
	if prom != nil {
		h.Middleware = append(h.Middleware, prom.Middleware())
	}
	return h
}
