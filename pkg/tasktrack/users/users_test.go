package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	r := gin.New()
	api := r.Group("/api")
	NewHandler(db).RegisterRoutes(api)
	return db, r
}

func listUsers(t *testing.T, r *gin.Engine, query string) map[string]interface{} {
	req := httptest.NewRequest(http.MethodGet, "/api/users"+query, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body["data"].(map[string]interface{})
}

func seedUsers(t *testing.T, db *gorm.DB) {
	users := []models.User{
		{Name: "Alice", Email: "alice@example.com", APIKey: "alice-key", PasswordHash: "x", Role: models.RoleAdmin},
		{Name: "Bob", Email: "bob@example.com", APIKey: "bob-key", PasswordHash: "x", Role: models.RoleUser},
		{Name: "Carol", Email: "carol@example.com", APIKey: "carol-key", PasswordHash: "x", Role: models.RoleUser},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("Failed to seed user: %v", err)
		}
	}
}

func TestListUsers(t *testing.T) {
	db, r := setupTest(t)
	seedUsers(t, db)

	data := listUsers(t, r, "")
	meta := data["meta"].(map[string]interface{})
	if meta["total"].(float64) != 3 {
		t.Errorf("Expected 3 users, got %v", meta["total"])
	}

	// The listing shape must never leak credentials
	results := data["results"].([]interface{})
	first := results[0].(map[string]interface{})
	if _, leaked := first["api_key"]; leaked {
		t.Error("api_key must not appear in the listing")
	}
	if _, leaked := first["password"]; leaked {
		t.Error("password must not appear in the listing")
	}
}

func TestListUsersFilters(t *testing.T) {
	db, r := setupTest(t)
	seedUsers(t, db)

	data := listUsers(t, r, "?name=Bob")
	if data["meta"].(map[string]interface{})["total"].(float64) != 1 {
		t.Errorf("Name filter should match one user")
	}

	data = listUsers(t, r, "?email=carol@example.com")
	results := data["results"].([]interface{})
	if len(results) != 1 || results[0].(map[string]interface{})["name"] != "Carol" {
		t.Errorf("Email filter should match Carol, got %v", results)
	}

	// Exact match only, no partials
	data = listUsers(t, r, "?name=Bo")
	if data["meta"].(map[string]interface{})["total"].(float64) != 0 {
		t.Errorf("Name filter must be exact")
	}
}

func TestListUsersSort(t *testing.T) {
	db, r := setupTest(t)
	seedUsers(t, db)

	data := listUsers(t, r, "?sort=name&direction=desc")
	results := data["results"].([]interface{})
	if results[0].(map[string]interface{})["name"] != "Carol" {
		t.Errorf("Expected name-descending order, got %v", results[0])
	}

	// A non-whitelisted field is ignored
	data = listUsers(t, r, "?sort=password&direction=asc")
	if data["meta"].(map[string]interface{})["total"].(float64) != 3 {
		t.Errorf("Unknown sort field should be dropped, not fail")
	}
}
