package httpadapter

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"farmstead/internal/app/farming"
	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
)

const ownerIDHeader = "X-Owner-ID"
const adminKeyHeader = "X-Admin-Key"

// FarmService is the slice of the farming engine the HTTP layer drives.
type FarmService interface {
	Plant(ctx context.Context, req farming.PlantRequest) (farm.Plot, error)
	Harvest(ctx context.Context, req farming.HarvestRequest) (farming.HarvestResult, error)
	PlotsOf(ctx context.Context, ownerID string) ([]farm.Plot, error)
	UnharvestedPlotsOf(ctx context.Context, ownerID string) ([]farm.Plot, error)
	PlotsInArea(ctx context.Context, q farming.AreaQuery) ([]farm.Plot, error)
	IsAvailable(ctx context.Context, x, y, radius float64) (bool, error)
	WorldSnapshot(ctx context.Context, ownerID, displayName string) (farming.WorldSnapshot, error)
	OwnerProfile(ctx context.Context, ownerID string) (farming.Profile, error)
	RenameOwner(ctx context.Context, ownerID, displayName string) (farm.Owner, error)
	RemovePlot(ctx context.Context, plotID string) error
	Status(plot farm.Plot) farming.PlotStatus
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

type Handler struct {
	Farm     FarmService
	KPI      kpiSnapshotProvider
	AdminKey string
	// Metrics serves GET /metrics when set.
	Metrics app.HandlerFunc
	// Middleware runs before every route, after request-id and CORS.
	Middleware []app.HandlerFunc
}

func (h Handler) RegisterRoutes(r *route.Engine) {
	r.Use(requestIDMiddleware(), corsMiddleware())
	r.Use(h.Middleware...)

	api := r.Group("/api/farm")
	api.POST("/plant", h.plant)
	api.POST("/harvest", h.harvest)
	api.GET("/plots", h.plots)
	api.GET("/area", h.area)
	api.GET("/available", h.available)
	api.GET("/world", h.world)
	api.GET("/profile", h.profile)
	api.POST("/profile/name", h.rename)

	admin := r.Group("/api/admin", h.requireAdmin)
	admin.DELETE("/plots/:id", h.removePlot)

	r.GET("/ops/kpi", h.kpi)
	r.GET("/healthz", h.healthz)
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics)
	}
}

type plantRequest struct {
	PlotClass        string   `json:"plot_class" validate:"required,max=32"`
	X                *float64 `json:"x" validate:"required"`
	Y                *float64 `json:"y" validate:"required"`
	InvestmentAmount float64  `json:"investment_amount" validate:"gt=0"`
}

type harvestRequest struct {
	PlotID string `json:"plot_id" validate:"required,max=64"`
}

type renameRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=64"`
}

type plotResponse struct {
	ID                    string     `json:"id"`
	OwnerID               string     `json:"owner_id"`
	PlotClass             string     `json:"plot_class"`
	X                     float64    `json:"x"`
	Y                     float64    `json:"y"`
	GridX                 int        `json:"grid_x"`
	GridY                 int        `json:"grid_y"`
	PlantedAt             time.Time  `json:"planted_at"`
	GrowthDurationSeconds int64      `json:"growth_duration_seconds"`
	InvestmentAmount      float64    `json:"investment_amount"`
	Harvested             bool       `json:"harvested"`
	YieldAmount           *float64   `json:"yield_amount"`
	HarvestedAt           *time.Time `json:"harvested_at"`
	Progress              float64    `json:"progress"`
	Mature                bool       `json:"mature"`
	RemainingSeconds      int64      `json:"remaining_seconds"`
}

type ownerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Experience  int64  `json:"experience"`
	Level       int64  `json:"level"`
}

func (h Handler) toPlotResponse(p farm.Plot) plotResponse {
	st := h.Farm.Status(p)
	return plotResponse{
		ID:                    p.ID,
		OwnerID:               p.OwnerID,
		PlotClass:             string(p.Class),
		X:                     p.X,
		Y:                     p.Y,
		GridX:                 p.GridX,
		GridY:                 p.GridY,
		PlantedAt:             p.PlantedAt,
		GrowthDurationSeconds: int64(p.GrowthDuration / time.Second),
		InvestmentAmount:      p.InvestmentAmount,
		Harvested:             p.Harvested,
		YieldAmount:           p.YieldAmount,
		HarvestedAt:           p.HarvestedAt,
		Progress:              st.Progress,
		Mature:                st.Mature,
		RemainingSeconds:      st.RemainingSeconds,
	}
}

func (h Handler) toPlotList(plots []farm.Plot) []plotResponse {
	out := make([]plotResponse, 0, len(plots))
	for _, p := range plots {
		out = append(out, h.toPlotResponse(p))
	}
	return out
}

func toOwnerResponse(o farm.Owner) ownerResponse {
	return ownerResponse{
		ID:          o.ID,
		DisplayName: o.DisplayName,
		Experience:  o.Experience,
		Level:       o.Level(),
	}
}

func (h Handler) plant(c context.Context, ctx *app.RequestContext) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body plantRequest
	if !bindAndValidate(ctx, &body) {
		return
	}
	plot, err := h.Farm.Plant(c, farming.PlantRequest{
		OwnerID:          ownerID,
		Class:            farm.PlotClass(body.PlotClass),
		X:                *body.X,
		Y:                *body.Y,
		InvestmentAmount: body.InvestmentAmount,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, h.toPlotResponse(plot))
}

func (h Handler) harvest(c context.Context, ctx *app.RequestContext) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body harvestRequest
	if !bindAndValidate(ctx, &body) {
		return
	}
	res, err := h.Farm.Harvest(c, farming.HarvestRequest{PlotID: body.PlotID, OwnerID: ownerID})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) plots(c context.Context, ctx *app.RequestContext) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var plots []farm.Plot
	if onlyGrowing, _ := strconv.ParseBool(string(ctx.Query("unharvested"))); onlyGrowing {
		plots, err = h.Farm.UnharvestedPlotsOf(c, ownerID)
	} else {
		plots, err = h.Farm.PlotsOf(c, ownerID)
	}
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"plots": h.toPlotList(plots)})
}

func (h Handler) area(c context.Context, ctx *app.RequestContext) {
	var rect spatial.Rect
	var err error
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"min_x", &rect.MinX},
		{"min_y", &rect.MinY},
		{"max_x", &rect.MaxX},
		{"max_y", &rect.MaxY},
	} {
		if *f.dst, err = queryFloat(ctx, f.key, true); err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": f.key})
			return
		}
	}
	plots, err := h.Farm.PlotsInArea(c, farming.AreaQuery{
		Rect:    rect,
		OwnerID: strings.TrimSpace(string(ctx.Query("owner_id"))),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"plots": h.toPlotList(plots)})
}

func (h Handler) available(c context.Context, ctx *app.RequestContext) {
	x, err := queryFloat(ctx, "x", true)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": "x"})
		return
	}
	y, err := queryFloat(ctx, "y", true)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": "y"})
		return
	}
	radius, err := queryFloat(ctx, "radius", false)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": "radius"})
		return
	}
	ok, err := h.Farm.IsAvailable(c, x, y, radius)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"x": x, "y": y, "available": ok})
}

func (h Handler) world(c context.Context, ctx *app.RequestContext) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	snap, err := h.Farm.WorldSnapshot(c, ownerID, string(ctx.Query("display_name")))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"owner":             toOwnerResponse(snap.Owner),
		"unharvested_plots": h.toPlotList(snap.UnharvestedPlots),
	})
}

func (h Handler) profile(c context.Context, ctx *app.RequestContext) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	p, err := h.Farm.OwnerProfile(c, ownerID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"owner":           toOwnerResponse(p.Owner),
		"growing_plots":   p.Growing,
		"harvested_plots": p.Harvested,
	})
}

func (h Handler) rename(c context.Context, ctx *app.RequestContext) {
	ownerID, err := requireOwner(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var body renameRequest
	if !bindAndValidate(ctx, &body) {
		return
	}
	owner, err := h.Farm.RenameOwner(c, ownerID, body.DisplayName)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, toOwnerResponse(owner))
}

func (h Handler) removePlot(c context.Context, ctx *app.RequestContext) {
	if err := h.Farm.RemovePlot(c, ctx.Param("id")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(consts.StatusNoContent)
}

func (h Handler) requireAdmin(c context.Context, ctx *app.RequestContext) {
	if h.AdminKey == "" {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "admin api disabled", nil)
		ctx.Abort()
		return
	}
	key := strings.TrimSpace(string(ctx.GetHeader(adminKeyHeader)))
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.AdminKey)) != 1 {
		writeErrorBody(ctx, consts.StatusUnauthorized, "unauthorized", "invalid admin key", nil)
		ctx.Abort()
		return
	}
	ctx.Next(c)
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured", nil)
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

var ErrMissingOwnerID = errors.New("missing x-owner-id header")

func requireOwner(ctx *app.RequestContext) (string, error) {
	ownerID := strings.TrimSpace(string(ctx.GetHeader(ownerIDHeader)))
	if ownerID == "" {
		return "", ErrMissingOwnerID
	}
	return ownerID, nil
}

// bindAndValidate writes the 400 response itself and reports whether the
// handler may continue.
func bindAndValidate(ctx *app.RequestContext, out any) bool {
	body := ctx.Request.Body()
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json", nil)
			return false
		}
	}
	if err := getValidator().Struct(out); err != nil {
		details := map[string]any{}
		for k, v := range formatValidationError(err) {
			details[k] = v
		}
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "invalid request", details)
		return false
	}
	return true
}

var errMissingQuery = errors.New("missing query parameter")

func queryFloat(ctx *app.RequestContext, key string, required bool) (float64, error) {
	raw := strings.TrimSpace(string(ctx.Query(key)))
	if raw == "" {
		if required {
			return 0, errMissingQuery
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("invalid number")
	}
	return v, nil
}

func writeError(ctx *app.RequestContext, err error) {
	var (
		invalidClass *farming.InvalidPlotClassError
		insufficient *farming.InsufficientInvestmentError
		occupied     *farming.PositionOccupiedError
		notMature    *farming.NotMatureError
	)
	switch {
	case errors.Is(err, ErrMissingOwnerID):
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_owner_id", err.Error(), nil)
	case errors.As(err, &invalidClass):
		known := make([]string, 0, len(invalidClass.Known))
		for _, k := range invalidClass.Known {
			known = append(known, string(k))
		}
		writeErrorBody(ctx, consts.StatusBadRequest, farming.ReasonInvalidPlotClass, err.Error(), map[string]any{"known_classes": known})
	case errors.As(err, &insufficient):
		writeErrorBody(ctx, consts.StatusBadRequest, farming.ReasonInsufficientInvestment, err.Error(), map[string]any{"minimum": insufficient.Minimum})
	case errors.As(err, &occupied):
		writeErrorBody(ctx, consts.StatusConflict, farming.ReasonPositionOccupied, err.Error(), map[string]any{"blocking_plot_id": occupied.BlockingPlotID})
	case errors.As(err, &notMature):
		writeErrorBody(ctx, consts.StatusConflict, farming.ReasonNotMature, err.Error(), map[string]any{
			"remaining_seconds": int64(math.Ceil(notMature.Remaining.Seconds())),
			"progress":          notMature.Progress,
		})
	case errors.Is(err, farming.ErrPlotNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, farming.ReasonPlotNotFound, err.Error(), nil)
	case errors.Is(err, farming.ErrNotOwner):
		writeErrorBody(ctx, consts.StatusForbidden, farming.ReasonNotOwner, err.Error(), nil)
	case errors.Is(err, farming.ErrAlreadyHarvested):
		writeErrorBody(ctx, consts.StatusConflict, farming.ReasonAlreadyHarvested, err.Error(), nil)
	case errors.Is(err, farming.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, farming.ErrTransactionFailed):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, farming.ReasonTransactionFailed, "transaction failed, nothing was changed", nil)
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, farming.ReasonInfrastructure, "internal error", nil)
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string, details map[string]any) {
	ctx.JSON(status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
