package api

import (
	"time"

	models "TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	"TrendPull/internal/engine"
	svcmetrics "TrendPull/internal/service/metrics"
	"TrendPull/internal/service/ratelimit"
	"TrendPull/internal/usecase"
	xhttp "TrendPull/pkg/http"
	xlogger "TrendPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TrendHandler exposes the trend engine over HTTP.
type TrendHandler struct {
	logger  *xlogger.Logger
	trend   *usecase.TrendUseCase
	candles *usecase.CandlesUseCase
	storage domrepo.SignalStorage
	rl      *ratelimit.Limiter
}

func NewTrendHandler(
	logger *xlogger.Logger,
	trend *usecase.TrendUseCase,
	candles *usecase.CandlesUseCase,
	storage domrepo.SignalStorage,
) *TrendHandler {
	svcmetrics.Register()
	return &TrendHandler{
		logger:  logger,
		trend:   trend,
		candles: candles,
		storage: storage,
		rl:      ratelimit.New(),
	}
}

func (h *TrendHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/trend", h.Trend)
	g.GET("/signals", h.Signals)
	g.GET("/clusters", h.Clusters)
	g.GET("/candles", h.Candles)
}

func (h *TrendHandler) Trend(c echo.Context) error {
	start := time.Now()
	if !h.rl.Allow(c.RealIP()+":trend", 5, 2) {
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limited"})
	}
	req := &models.TrendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.trend.ComputeTrend(c.Request().Context(), usecase.TrendParams{
		Symbol:      req.Symbol,
		N:           req.N,
		Timeframe:   domrepo.NormalizeTimeframe(req.TF),
		FromCluster: engine.ClusterChoice(req.FromCluster),
		PerfAlpha:   req.PerfAlpha,
	})
	if err != nil {
		svcmetrics.TrendErrors.WithLabelValues("trend").Inc()
		h.logger.Error("trend usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	svcmetrics.TrendLatency.WithLabelValues("trend").Observe(time.Since(start).Seconds())
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *TrendHandler) Signals(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":signals", 5, 2) {
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limited"})
	}
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()

	// Persisted flips first; fall back to a fresh computation when the
	// store has nothing for the symbol yet.
	now := time.Now().UTC()
	stored, err := h.storage.Query(ctx, req.Symbol, now.AddDate(0, 0, -30), now, req.Limit)
	if err != nil {
		h.logger.Warn("signal storage query failed", xlogger.Error(err))
	}
	if len(stored) > 0 {
		return xhttp.SuccessResponse(c, stored)
	}

	res, err := h.trend.ComputeTrend(ctx, usecase.TrendParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
	})
	if err != nil {
		svcmetrics.TrendErrors.WithLabelValues("signals").Inc()
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	signals := res.Signals
	if len(signals) > req.Limit {
		signals = signals[len(signals)-req.Limit:]
	}
	return xhttp.SuccessResponse(c, signals)
}

func (h *TrendHandler) Clusters(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":clusters", 3, 1) {
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limited"})
	}
	req := &models.ClustersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.trend.ComputeTrend(c.Request().Context(), usecase.TrendParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
	})
	if err != nil {
		svcmetrics.TrendErrors.WithLabelValues("clusters").Inc()
		h.logger.Error("clusters usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res.Clusters == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "no cluster pass has run for this window"})
	}
	return xhttp.SuccessResponse(c, res.Clusters)
}

func (h *TrendHandler) Candles(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":candles", 10, 5) {
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limited"})
	}
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, map[string]string{"error": "symbol required"})
	}
	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 10000)
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
