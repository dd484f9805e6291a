package sharing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	patient.POST("/share-profile", h.Share)
	patient.GET("/patient/shared-profiles", h.ListForPatient)
	patient.GET("/patient/fhir-profiles", h.ListBundles)
	patient.DELETE("/shared-profiles/:id", h.Delete)

	api.GET("/doctor/shared-profiles", h.ListForDoctor, auth.RequireRole(auth.RoleDoctor))
	api.GET("/hospital/shared-profiles", h.ListForHospital, auth.RequireRole(auth.RoleHospital))
}

func (h *Handler) Share(c echo.Context) error {
	var in ShareInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	record, err := h.svc.Share(c.Request().Context(), ident.Email, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	if err := h.svc.Delete(c.Request().Context(), ident.Email, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())
	profiles, total, err := h.svc.ListForApplicant(c.Request().Context(), ident.Email, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(profiles, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())
	profiles, total, err := h.svc.ListForDoctor(c.Request().Context(), ident.Email, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(profiles, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListForHospital(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())
	profiles, total, err := h.svc.ListForHospital(c.Request().Context(), ident.Email, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(profiles, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListBundles(c echo.Context) error {
	pg := pagination.FromContext(c)
	ident := auth.IdentityFromContext(c.Request().Context())
	bundles, total, err := h.svc.ListBundlesForApplicant(c.Request().Context(), ident.Email, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bundles, total, pg.Limit, pg.Offset))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
