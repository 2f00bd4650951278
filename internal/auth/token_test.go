package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
)

func TestIssueAccessTokenAcceptedByAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "operator-secret"
	operatorID := uuid.New()

	token, err := IssueAccessToken(secret, operatorID, []string{RoleAdmin}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	engine := gin.New()
	engine.GET("/whoami",
		httpkit.AuthRequired(&config.Config{JWTAccessSecret: secret}),
		httpkit.RequireRole(RoleAdmin),
		func(c *gin.Context) {
			op, ok := httpkit.MustGetOperator(c)
			if !ok {
				return
			}
			c.String(http.StatusOK, op.ID.String())
		})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != operatorID.String() {
		t.Fatalf("expected operator %s, got %q", operatorID, rec.Body.String())
	}
}

func TestIssueAccessTokenExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "operator-secret"

	token, err := IssueAccessToken(secret, uuid.New(), []string{RoleAdmin}, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	engine := gin.New()
	engine.GET("/whoami", httpkit.AuthRequired(&config.Config{JWTAccessSecret: secret}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", rec.Code)
	}
}

func TestIssueAccessTokenRequiresSecret(t *testing.T) {
	_, err := IssueAccessToken("", uuid.New(), nil, time.Hour, time.Now())
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
