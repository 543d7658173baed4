package subject

import (
	"net/http"

	"github.com/eleven-am/mohami/internal/dto"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

func toResponse(s Subject) dto.SubjectResponse {
	return dto.SubjectResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Icon:        s.Icon,
	}
}

// List godoc
// @Summary      List subjects
// @Description  Returns the law subjects available for study
// @Tags         subjects
// @Produce      json
// @Success      200  {object}  dto.SubjectListResponse
// @Router       /subjects [get]
func (h *Handler) List(c echo.Context) error {
	subjects := h.catalog.List()
	resp := make([]dto.SubjectResponse, len(subjects))
	for i, s := range subjects {
		resp[i] = toResponse(s)
	}
	return c.JSON(http.StatusOK, dto.SubjectListResponse{Subjects: resp})
}

// Get godoc
// @Summary      Get a subject
// @Tags         subjects
// @Produce      json
// @Param        id   path      string  true  "Subject ID"
// @Success      200  {object}  dto.SubjectResponse
// @Failure      404  {object}  shared.APIError
// @Router       /subjects/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	s, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		return shared.NotFound("subject_not_found", "subject not found")
	}
	return c.JSON(http.StatusOK, toResponse(s))
}
