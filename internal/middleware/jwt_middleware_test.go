package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/utils"
)

func newTestRouter() (*gin.Engine, *JWTMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, NewJWTMiddleware()
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	router, mw := newTestRouter()
	router.GET("/protected", mw.Handle(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	router, mw := newTestRouter()
	router.GET("/protected", mw.Handle(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestJWTMiddlewareSetsIdentity(t *testing.T) {
	utils.SetJWTSecret("test-secret")
	token, err := utils.GenerateJWT(42, "admin1", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	router, mw := newTestRouter()
	var gotID int
	var gotRole string
	router.GET("/protected", mw.Handle(), func(c *gin.Context) {
		gotID = c.GetInt("user_id")
		gotRole = c.GetString("role")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != 42 || gotRole != "admin" {
		t.Fatalf("identity not propagated: id=%d role=%s", gotID, gotRole)
	}
}
