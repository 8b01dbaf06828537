package users

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/pagination"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/response"
	"gorm.io/gorm"
)

// Handler handles user listing requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// sortableFields whitelists the user listing sort columns
func sortableFields() []string {
	return []string{"name", "created_at"}
}

// Index returns one page of users, optionally filtered by exact name or email
func (h *Handler) Index(c *gin.Context) {
	query := h.db.Model(&models.User{})
	if name := c.Query("name"); name != "" {
		query = query.Where("name = ?", name)
	}
	if email := c.Query("email"); email != "" {
		query = query.Where("email = ?", email)
	}

	if clause := pagination.SortClause(c.Query("sort"), c.Query("direction"), sortableFields()); clause != "" {
		query = query.Order(clause)
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))

	var results []models.User
	meta, err := pagination.Paginate(query, page, limit, &results)
	if err != nil {
		response.SendError(c, err)
		return
	}

	items := make([]UserResponse, 0, len(results))
	for _, user := range results {
		items = append(items, UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      string(user.Role),
			CreatedAt: user.CreatedAt,
		})
	}
	response.SendOK(c, http.StatusOK, pagination.Page{Meta: meta, Results: items})
}

// RegisterRoutes registers user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.Index)
}
