package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/response"
	"gorm.io/gorm"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeyRole is the key for the user role in gin context
	ContextKeyRole = "role"

	// apiKeyCacheTTL is how long an API key lookup is cached
	apiKeyCacheTTL = 10 * time.Minute
)

// Principal identifies the authenticated caller for authorization checks
type Principal struct {
	ID   uint
	Role models.Role
}

// IsAdmin reports whether the caller holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type cachedUser struct {
	user      models.User
	expiresAt time.Time
}

var (
	apiKeyCacheMu sync.Mutex
	apiKeyCache   = map[string]cachedUser{}
)

// lookupAPIKey resolves an API key to its user, caching hits for a short
// period so repeated calls do not hammer the users table
func lookupAPIKey(db *gorm.DB, apiKey string) (models.User, bool) {
	apiKeyCacheMu.Lock()
	entry, ok := apiKeyCache[apiKey]
	apiKeyCacheMu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.user, true
	}

	var user models.User
	if err := db.Where("api_key = ?", apiKey).First(&user).Error; err != nil {
		return models.User{}, false
	}

	apiKeyCacheMu.Lock()
	apiKeyCache[apiKey] = cachedUser{user: user, expiresAt: time.Now().Add(apiKeyCacheTTL)}
	apiKeyCacheMu.Unlock()

	return user, true
}

// ResetAPIKeyCache clears the API key cache
func ResetAPIKeyCache() {
	apiKeyCacheMu.Lock()
	apiKeyCache = map[string]cachedUser{}
	apiKeyCacheMu.Unlock()
}

// bearerToken extracts the bearer token from the Authorization header
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.Trim(parts[1], `"`)
}

// Middleware authenticates requests with either a JWT or a user API key
// presented as a bearer token, and sets the caller info in the context
func Middleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.SendError(c, apperr.Unauthorized("Authorization header required"))
			c.Abort()
			return
		}

		// Try JWT first
		if claims, err := ValidateToken(token); err == nil {
			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyEmail, claims.Email)
			c.Set(ContextKeyRole, claims.Role)
			c.Next()
			return
		}

		// Fall back to API key lookup
		if user, ok := lookupAPIKey(db, token); ok {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyEmail, user.Email)
			c.Set(ContextKeyRole, string(user.Role))
			c.Next()
			return
		}

		response.SendError(c, apperr.Unauthorized("Unauthorized attempt"))
		c.Abort()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetRole returns the role from the gin context
func GetRole(c *gin.Context) (models.Role, bool) {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	parsed, ok := models.ParseRole(role.(string))
	return parsed, ok
}

// CurrentPrincipal returns the authenticated caller, or false when the
// request carries no authentication context
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return Principal{}, false
	}
	role, ok := GetRole(c)
	if !ok {
		return Principal{}, false
	}
	return Principal{ID: userID, Role: role}, true
}
