package identity

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

// RegisterRoutes mounts identity routes. Registration is on the public group;
// profile and recipients require an authenticated caller.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/register/:role", h.Register)

	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)
	api.GET("/recipients", h.ListRecipients, auth.RequireRole(auth.RolePatient))
}

func (h *Handler) Register(c echo.Context) error {
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	profile, err := h.svc.Register(c.Request().Context(), c.Param("role"), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, profile)
}

func (h *Handler) GetProfile(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	profile, err := h.svc.GetProfile(c.Request().Context(), ident.Role, ident.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ident := auth.IdentityFromContext(c.Request().Context())
	profile, err := h.svc.UpdateProfile(c.Request().Context(), ident.Role, ident.Email, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) ListRecipients(c echo.Context) error {
	pg := pagination.FromContext(c)
	recipients, err := h.svc.ListRecipients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, recipients)
}

// httpError maps domain errors to HTTP status codes. Store errors are never
// passed through verbatim.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
