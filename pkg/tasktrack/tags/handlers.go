package tags

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/pagination"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/response"
	"gorm.io/gorm"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Handler handles tag-related requests
type Handler struct {
	service *Service
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{service: NewService(db)}
}

// CreateTagRequest is the POST /tags body
type CreateTagRequest struct {
	Name  string  `json:"name" binding:"required,max=100"`
	Color *string `json:"color"`
}

// UpdateTagRequest is the PUT/PATCH /tags/:id body
type UpdateTagRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Color *string `json:"color"`
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTagResponse(t *models.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		Color:     t.Color,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func validColor(color *string) bool {
	return color == nil || *color == "" || hexColorPattern.MatchString(*color)
}

func tagID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.NotFound("No record found for given id")
	}
	return uint(id), nil
}

// Store creates a new tag
func (h *Handler) Store(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("name", "Name is required"))
		return
	}
	if !validColor(req.Color) {
		response.SendError(c, apperr.Validation("color", "Color should be in hex format"))
		return
	}

	tag, err := h.service.Store(TagInput{Name: &req.Name, Color: req.Color})
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendCreated(c, toTagResponse(tag))
}

// Index returns one page of tags
func (h *Handler) Index(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))

	results, meta, err := h.service.List(c.Query("name"), limit, page, c.Query("sort"), c.Query("direction"))
	if err != nil {
		response.SendError(c, err)
		return
	}

	items := make([]TagResponse, 0, len(results))
	for i := range results {
		items = append(items, toTagResponse(&results[i]))
	}
	response.SendOK(c, http.StatusOK, pagination.Page{Meta: meta, Results: items})
}

// Show returns a single tag
func (h *Handler) Show(c *gin.Context) {
	id, err := tagID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	tag, err := h.service.Find(id)
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTagResponse(tag))
}

// Update merges the supplied fields into a tag
func (h *Handler) Update(c *gin.Context) {
	id, err := tagID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("", err.Error()))
		return
	}
	if !validColor(req.Color) {
		response.SendError(c, apperr.Validation("color", "Color should be in hex format"))
		return
	}

	tag, err := h.service.Update(id, TagInput{Name: req.Name, Color: req.Color})
	if err != nil {
		response.SendError(c, err)
		return
	}
	response.SendOK(c, http.StatusOK, toTagResponse(tag))
}

// Destroy deletes a tag unless it is still referenced by a task
func (h *Handler) Destroy(c *gin.Context) {
	id, err := tagID(c)
	if err != nil {
		response.SendError(c, err)
		return
	}

	if err := h.service.Delete(id); err != nil {
		response.SendError(c, err)
		return
	}
	response.SendNoContent(c)
}

// RegisterRoutes registers tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.Index)
	rg.POST("/tags", h.Store)
	rg.GET("/tags/:id", h.Show)
	rg.PUT("/tags/:id", h.Update)
	rg.PATCH("/tags/:id", h.Update)
	rg.DELETE("/tags/:id", h.Destroy)
}
