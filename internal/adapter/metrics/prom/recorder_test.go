package prom

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"farmstead/internal/domain/farm"
)

func TestRecorder_FarmCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordPlant(farm.ClassOrchard, 250)
	r.RecordPlant(farm.ClassOrchard, 100)
	r.RecordHarvest(farm.ClassOrchard, 1.25)
	r.RecordRejection("harvest", "not_mature")
	r.RecordFailure("plant")
	r.RecordClockSkew()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.plotsPlanted.WithLabelValues("orchard")))
	assert.Equal(t, 350.0, testutil.ToFloat64(r.investment.WithLabelValues("orchard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.plotsHarvested.WithLabelValues("orchard")))
	assert.Equal(t, 1.25, testutil.ToFloat64(r.yield.WithLabelValues("orchard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejections.WithLabelValues("harvest", "not_mature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("plant")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.clockSkew))
}

func TestRecorder_SeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(prometheus.NewRegistry())
		NewRecorder(prometheus.NewRegistry())
	})
}

func TestRecorder_MiddlewareLabelsRoutePattern(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	engine := route.NewEngine(config.NewOptions(nil))
	engine.Use(r.Middleware())
	engine.GET("/api/plots/:id", func(ctx context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, "ok")
	})

	w := ut.PerformRequest(engine, http.MethodGet, "/api/plots/p-1", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/plots/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.httpInFlight))
}
