package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/client-portal/internal/auth"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/infra/repository"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func portalRouter(t *testing.T) (*gin.Engine, *auth.Issuer, *repository.ClientMemoryRepository) {
	t.Helper()
	iss := auth.NewIssuer("secret", time.Hour, time.Hour)
	repo := repository.NewClientMemoryRepository()

	r := gin.New()
	portal := r.Group("/portal", AuthMiddleware(iss), RequireRole(auth.RoleClient))
	portal.GET("/:resource", StageGate(repo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"resource": c.Param("resource")})
	})
	return r, iss, repo
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r, _, _ := portalRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/portal/dashboard", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/portal/dashboard", "junk").Code)
}

func TestRequireRole(t *testing.T) {
	r, iss, _ := portalRouter(t)
	tok, err := iss.Staff(1, auth.RoleStaff)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/portal/dashboard", tok).Code)
}

func TestStageGate(t *testing.T) {
	r, iss, repo := portalRouter(t)
	ctx := context.Background()

	c := domain.New("Fabio", "fabio@example.com", "", time.Now())
	require.NoError(t, repo.Create(ctx, c))
	tok, _, err := iss.Portal(c.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/portal/dashboard", tok).Code)
	assert.Equal(t, http.StatusOK, do(r, "/portal/freeAnalysis", tok).Code)

	w := do(r, "/portal/billing", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_resource")

	_, err = domain.Update(ctx, repo, c.ID, func(m *models.Client) error {
		_, err := domain.Apply(m, stage.SendPortalInvite, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, "/portal/profile", tok).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "abc", w.Body.String())

	w = do(r, "/x", "")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://portal.example.com/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, HeaderRequestID, w.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
