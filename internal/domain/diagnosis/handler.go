package diagnosis

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinicd/internal/platform/apperr"
	"github.com/clinicops/clinicd/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	read.GET("/episodes/:episodeId/diagnoses", h.ListByEpisode)
	read.GET("/diagnoses/:id", h.Get)

	write := api.Group("", auth.RequireRole("admin", "physician"))
	write.POST("/episodes/:episodeId/diagnoses", h.Create)
	write.PUT("/diagnoses/:id", h.Update)
	write.POST("/episodes/:episodeId/diagnoses/:diagnosisId/make-primary", h.MakePrimary)
}

func (h *Handler) Create(c echo.Context) error {
	episodeID, err := uuid.Parse(c.Param("episodeId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid episode id")
	}
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), episodeID, &d)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListByEpisode(c echo.Context) error {
	episodeID, err := uuid.Parse(c.Param("episodeId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid episode id")
	}
	items, err := h.svc.ListByEpisode(c.Request().Context(), episodeID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) MakePrimary(c echo.Context) error {
	episodeID, err := uuid.Parse(c.Param("episodeId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid episode id")
	}
	diagnosisID, err := uuid.Parse(c.Param("diagnosisId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid diagnosis id")
	}
	transfer, err := h.svc.MakePrimary(c.Request().Context(), episodeID, diagnosisID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, transfer)
}
