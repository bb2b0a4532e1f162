package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/usecase"
	xhttp "RiskPulse/pkg/http"
	xlogger "RiskPulse/pkg/logger"
)

// PutCallReader serves the recent daily put/call table.
type PutCallReader interface {
	Recent(ctx context.Context, asOf time.Time) ([]models.PutCallVolume, error)
}

// IndicatorsEchoHandler serves indicator histories. "Today" is taken from
// the wall clock here and nowhere below.
type IndicatorsEchoHandler struct {
	logger  *xlogger.Logger
	svc     usecase.IndicatorReader
	putcall PutCallReader
	loc     *time.Location
	now     func() time.Time
}

func NewIndicatorsEchoHandler(logger *xlogger.Logger, svc usecase.IndicatorReader, putcall PutCallReader, loc *time.Location) *IndicatorsEchoHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &IndicatorsEchoHandler{logger: logger, svc: svc, putcall: putcall, loc: loc, now: time.Now}
}

func (h *IndicatorsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/indicators", h.List)
	g.GET("/indicators/:name/history", h.History)
	g.GET("/indicators/:name/latest", h.Latest)
	g.GET("/putcall/recent", h.RecentPutCall)

	// dashboard paths: bare payloads, flat errors
	g.GET("/:name/history", h.LegacyHistory)
	g.GET("/:name/latest", h.LegacyLatest)
}

func (h *IndicatorsEchoHandler) today() time.Time {
	return usecase.Today(h.now(), h.loc)
}

func (h *IndicatorsEchoHandler) List(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Indicators())
}

func (h *IndicatorsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	series, err := h.svc.History(c.Request().Context(), req.Name, req.Period, h.today())
	if err != nil {
		h.logFailure("history", req.Name, err)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, historyResponse(series))
}

func (h *IndicatorsEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	series, err := h.svc.Latest(c.Request().Context(), req.Name, h.today())
	if err != nil {
		h.logFailure("latest", req.Name, err)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, historyResponse(series))
}

func (h *IndicatorsEchoHandler) RecentPutCall(c echo.Context) error {
	rows, err := h.putcall.Recent(c.Request().Context(), h.today())
	if err != nil {
		h.logFailure("recent", "putcall-daily", err)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, rows)
}

// LegacyHistory answers with the bare record array.
func (h *IndicatorsEchoHandler) LegacyHistory(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	series, err := h.svc.History(c.Request().Context(), req.Name, req.Period, h.today())
	if err != nil {
		h.logFailure("history", req.Name, err)
		return xhttp.ErrorResponse(c, toAppError(err))
	}
	return c.JSON(http.StatusOK, series.Layout.Records(series.Points))
}

// LegacyLatest answers with the bare last record.
func (h *IndicatorsEchoHandler) LegacyLatest(c echo.Context) error {
	name := c.Param("name")
	series, err := h.svc.Latest(c.Request().Context(), name, h.today())
	if err != nil {
		h.logFailure("latest", name, err)
		return xhttp.ErrorResponse(c, toAppError(err))
	}
	return c.JSON(http.StatusOK, series.Layout.Record(series.Points[0]))
}

func (h *IndicatorsEchoHandler) logFailure(op, name string, err error) {
	fields := []xlogger.Field{xlogger.String("op", op), xlogger.String("indicator", name), xlogger.Error(err)}
	switch {
	case errors.Is(err, models.ErrUnknownIndicator), errors.Is(err, models.ErrUnsupportedPeriod), errors.Is(err, models.ErrNoData):
		h.logger.Debug("indicator request rejected", fields...)
	default:
		h.logger.Error("indicator request failed", fields...)
	}
}

func historyResponse(s *models.IndicatorSeries) models.HistoryResponse {
	return models.HistoryResponse{
		Indicator:    s.Indicator,
		Period:       s.Period,
		AsOf:         s.AsOf,
		WindowSize:   s.WindowSize,
		DisplayStart: s.DisplayStart,
		DisplayEnd:   s.DisplayEnd,
		Count:        len(s.Points),
		Records:      s.Layout.Records(s.Points),
	}
}

// toAppError maps domain errors to HTTP statuses.
func toAppError(err error) error {
	var ae *models.AcquisitionError
	switch {
	case errors.Is(err, models.ErrUnknownIndicator):
		return xhttp.NotFoundErrorf("%v", err)
	case errors.Is(err, models.ErrUnsupportedPeriod):
		return xhttp.BadRequestErrorf("%v", err)
	case errors.As(err, &ae):
		return xhttp.BadGatewayErrorf("upstream %s unavailable", ae.Source).WithError(err)
	case errors.Is(err, models.ErrNoData):
		return xhttp.NotFoundErrorf("%v", err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "request timed out", http.StatusGatewayTimeout).WithError(err)
	}
	return err
}
