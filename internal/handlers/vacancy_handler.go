package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tuttoxa9/vahtarep10/internal/dtos"
	"github.com/tuttoxa9/vahtarep10/internal/models"
	"github.com/tuttoxa9/vahtarep10/internal/services"
)

type VacancyLister interface {
	List(ctx context.Context, f services.VacancyFilter) ([]models.Vacancy, error)
}

type VacancyHandler struct {
	Catalog VacancyLister
	// resolver used for the vacancy page, counts a view on every hit
	Pages services.Resolver
}

// NewVacancyHandler accepts nil dependencies, the endpoints then answer 503.
func NewVacancyHandler(catalog VacancyLister, pages services.Resolver) *VacancyHandler {
	return &VacancyHandler{Catalog: catalog, Pages: pages}
}

// List is GET /vacancies
func (h *VacancyHandler) List(c *gin.Context) {
	if h.Catalog == nil {
		catalogUnavailable(c)
		return
	}

	var q dtos.VacancyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "Invalid query parameters", Details: err.Error()})
		return
	}

	vacancies, err := h.Catalog.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Vacancy list failed")
		c.JSON(http.StatusInternalServerError, dtos.ErrorResponse{Error: "Internal server error", Details: "failed to load vacancies"})
		return
	}
	c.JSON(http.StatusOK, dtos.NewVacancyViews(vacancies))
}

// Get is GET /vacancies/:id
func (h *VacancyHandler) Get(c *gin.Context) {
	if h.Pages == nil {
		catalogUnavailable(c)
		return
	}

	res := h.Pages.Resolve(c.Request.Context(), c.Param("id"))
	if !res.Resolved || res.Record == nil || !res.Record.Visible() {
		c.JSON(http.StatusNotFound, dtos.ErrorResponse{Error: "Vacancy not found"})
		return
	}
	c.JSON(http.StatusOK, dtos.NewVacancyView(res.Record))
}

func catalogUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, dtos.ErrorResponse{Error: "Vacancy catalog is unavailable in demo mode"})
}
