package loan

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medloan/medloan/internal/platform/auth"
	"github.com/medloan/medloan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("", auth.RequireRole(auth.RolePatient))
	patient.POST("/loan/apply", h.Apply)
	patient.POST("/loan/respond/:loan_id", h.RespondToRevisedPlan)
	patient.GET("/patient/loans", h.ListApplicantLoans)

	provider := api.Group("", auth.RequireRole(auth.RoleLoanProvider))
	provider.GET("/loan/provider/requests", h.ListProviderRequests)
	provider.POST("/loan/provider/decision/:loan_id", h.ProviderDecision)
	provider.GET("/loan/provider/analytics", h.ProviderAnalytics)

	api.GET("/loan/:loan_id", h.GetLoan)
}

func (h *Handler) Apply(c echo.Context) error {
	var in ApplyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	request, err := h.svc.Apply(c.Request().Context(), ident.Email, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, request)
}

func (h *Handler) ProviderDecision(c echo.Context) error {
	var in DecisionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	request, err := h.svc.ProviderDecision(c.Request().Context(), ident.Email, c.Param("loan_id"), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, request)
}

func (h *Handler) RespondToRevisedPlan(c echo.Context) error {
	var in struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	request, err := h.svc.RespondToRevisedPlan(c.Request().Context(), ident.Email, c.Param("loan_id"), in.Action)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, request)
}

func (h *Handler) GetLoan(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	request, err := h.svc.GetLoan(c.Request().Context(), ident.Role, ident.Email, c.Param("loan_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, request)
}

func (h *Handler) ListProviderRequests(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())
	views, total, err := h.svc.ListProviderRequests(c.Request().Context(), ident.Email, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListApplicantLoans(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())
	loans, total, err := h.svc.ListApplicantLoans(c.Request().Context(), ident.Email, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(loans, total, pg.Limit, pg.Offset))
}

func (h *Handler) ProviderAnalytics(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	analytics, err := h.svc.ProviderAnalytics(c.Request().Context(), ident.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, analytics)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
