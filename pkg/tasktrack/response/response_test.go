package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
)

func record(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope %q: %v", w.Body.String(), err)
	}
	return env
}

func TestSendOK(t *testing.T) {
	w := record(func(c *gin.Context) {
		SendOK(c, http.StatusOK, gin.H{"hello": "world"})
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Status != "success" || env.Errors != nil {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestSendErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantType string
	}{
		{apperr.Validation("title", "too short"), http.StatusUnprocessableEntity, "validation"},
		{apperr.NotFound("missing"), http.StatusNotFound, "system"},
		{apperr.Conflict("stale"), http.StatusConflict, "system"},
		{apperr.Forbidden("nope"), http.StatusForbidden, "system"},
		{apperr.Unauthorized("who"), http.StatusUnauthorized, "system"},
	}
	for _, tc := range cases {
		w := record(func(c *gin.Context) { SendError(c, tc.err) })
		if w.Code != tc.wantCode {
			t.Errorf("SendError(%v): expected %d, got %d", tc.err, tc.wantCode, w.Code)
		}
		env := decode(t, w)
		if env.Status != "failed" || len(env.Errors) != 1 {
			t.Fatalf("unexpected envelope: %+v", env)
		}
		if env.Errors[0].Type != tc.wantType || env.Errors[0].Code != tc.wantCode {
			t.Errorf("unexpected error item: %+v", env.Errors[0])
		}
	}
}

func TestSendErrorKeepsKeyForWrappedErrors(t *testing.T) {
	w := record(func(c *gin.Context) {
		SendError(c, fmt.Errorf("checking name: %w", apperr.Validation("name", "The name Test has already been taken.")))
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Errors[0].Key != "name" {
		t.Errorf("Wrapped validation error lost its key: %+v", env.Errors[0])
	}
}

func TestSendErrorMasksInternals(t *testing.T) {
	w := record(func(c *gin.Context) {
		SendError(c, errors.New("pq: connection refused to 10.0.0.3"))
	})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Errors[0].Message != "Something went wrong. Please try again later." {
		t.Errorf("Internal detail leaked: %q", env.Errors[0].Message)
	}
}

func TestSendValidationErrors(t *testing.T) {
	w := record(func(c *gin.Context) {
		SendValidationErrors(c, map[string]string{
			"title":    "too short",
			"due_date": "not a date",
		})
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", w.Code)
	}
	env := decode(t, w)
	if len(env.Errors) != 2 {
		t.Fatalf("Expected 2 error items, got %d", len(env.Errors))
	}
	keys := map[string]bool{}
	for _, item := range env.Errors {
		if item.Type != "validation" {
			t.Errorf("unexpected type: %+v", item)
		}
		keys[item.Key] = true
	}
	if !keys["title"] || !keys["due_date"] {
		t.Errorf("missing field keys: %v", keys)
	}
}
