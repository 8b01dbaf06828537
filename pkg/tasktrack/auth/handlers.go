package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/database"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/response"
	"gorm.io/gorm"
)

// Handler handles authentication requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	APIKey string `json:"api_key"`
	Token  string `json:"token"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GenerateAPIKey creates a new API key value
func GenerateAPIKey() string {
	return fmt.Sprintf("%s-%d", uuid.NewString(), time.Now().Unix())
}

// Signup handles user registration
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("", err.Error()))
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		response.SendError(c, apperr.Validation("email", "The email has already been taken."))
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		response.SendError(c, apperr.System("Failed to process password"))
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
	}

	// A fresh key is generated per attempt so a key collision can be
	// retried rather than failing the signup
	err = database.TransactionRetryOnUnique(h.db, func(tx *gorm.DB) error {
		user.APIKey = GenerateAPIKey()
		return tx.Create(&user).Error
	})
	if err != nil {
		response.SendError(c, apperr.System("Failed to create user"))
		return
	}

	response.SendOK(c, http.StatusOK, gin.H{
		"email":        user.Email,
		"user_created": true,
	})
}

// Login authenticates a user by email and password
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, apperr.Validation("", err.Error()))
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		response.SendError(c, apperr.NotFound("User not found."))
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		response.SendError(c, apperr.Unauthorized("Login failed."))
		return
	}

	token, err := GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.SendError(c, apperr.System("Failed to generate token"))
		return
	}

	response.SendOK(c, http.StatusOK, LoginResponse{
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
		APIKey: user.APIKey,
		Token:  token,
	})
}

// Me returns the current authenticated user
func (h *Handler) Me(c *gin.Context) {
	userID, exists := GetUserID(c)
	if !exists {
		response.SendError(c, apperr.Unauthorized("Authentication required"))
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		response.SendError(c, apperr.NotFound("No record found for given id"))
		return
	}

	response.SendOK(c, http.StatusOK, UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	})
}

// RegisterRoutes registers public auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
}
