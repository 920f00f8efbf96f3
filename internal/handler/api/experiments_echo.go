package api

import (
	"errors"

	"BestPrice/internal/domain/models"
	domrepo "BestPrice/internal/domain/repository"
	"BestPrice/internal/service/ratelimit"
	"BestPrice/internal/services/reservation"
	"BestPrice/internal/services/sweep"
	"BestPrice/internal/usecase"
	xhttp "BestPrice/pkg/http"
	xlogger "BestPrice/pkg/logger"

	"github.com/labstack/echo/v4"
)

const headerCache = "X-Cache"

// ExperimentsHandler serves evaluation, experiment and report endpoints.
type ExperimentsHandler struct {
	logger    *xlogger.Logger
	evaluator *usecase.Evaluator
	service   *usecase.ExperimentService
	rl        *ratelimit.Limiter
}

// NewExperimentsHandler creates the handler. rl throttles experiment runs per
// client address; nil disables throttling.
func NewExperimentsHandler(logger *xlogger.Logger, evaluator *usecase.Evaluator, service *usecase.ExperimentService,
	rl *ratelimit.Limiter) *ExperimentsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ExperimentsHandler{logger: logger, evaluator: evaluator, service: service, rl: rl}
}

func (h *ExperimentsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/evaluate", h.Evaluate)
	g.GET("/experiments/:algorithm", h.Experiment)
	g.GET("/reports/:id", h.Report)
	g.GET("/reports", h.Reports)
}

func (h *ExperimentsHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.evaluator.Evaluate(*req)
	if err != nil {
		return h.fail(c, "evaluate", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Experiment returns the report for the algorithm, computing it on a cache
// miss. X-Cache tells which happened.
func (h *ExperimentsHandler) Experiment(c echo.Context) error {
	q := &models.ExperimentQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.rl != nil && !h.rl.Allow(c.RealIP()+":experiments") {
		h.logger.Warn("experiments rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many experiment requests"))
	}
	rep, hit, err := h.service.Cached(c.Request().Context(), models.ExperimentRequest{
		Dataset:   q.Dataset,
		Algorithm: models.Algorithm(q.Algorithm),
		Samples:   q.Samples,
	})
	if err != nil {
		return h.fail(c, "experiment", err)
	}
	if hit {
		c.Response().Header().Set(headerCache, "HIT")
	} else {
		c.Response().Header().Set(headerCache, "MISS")
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *ExperimentsHandler) Report(c echo.Context) error {
	rep, err := h.service.Report(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "report", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *ExperimentsHandler) Reports(c echo.Context) error {
	q := &models.ReportListQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	reps, err := h.service.Reports(c.Request().Context(), q.Dataset, q.Limit)
	if err != nil {
		return h.fail(c, "reports", err)
	}
	if reps == nil {
		reps = []*models.Report{}
	}
	return xhttp.ListResponse(c, reps, int64(len(reps)))
}

func (h *ExperimentsHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, domrepo.ErrReportNotFound), errors.Is(err, domrepo.ErrDatasetNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrWindowOutOfRange),
		errors.Is(err, sweep.ErrNotEnoughRows),
		errors.Is(err, reservation.ErrEmptySeries),
		errors.Is(err, reservation.ErrEtaOutOfRange),
		errors.Is(err, reservation.ErrInvalidBounds),
		errors.Is(err, reservation.ErrInvalidDiscount),
		errors.Is(err, reservation.ErrInvalidTrust),
		errors.Is(err, reservation.ErrUnknownVariant):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
