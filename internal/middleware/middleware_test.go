package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type fakeAuthenticator struct {
	claims     *models.JWTClaims
	resolved   models.Viewer
	resolveErr error
}

func (f fakeAuthenticator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return f.claims, nil
}

func (f fakeAuthenticator) Resolve(viewer models.Viewer) (models.Viewer, error) {
	if f.resolveErr != nil {
		return models.Viewer{}, f.resolveErr
	}
	return f.resolved, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	teacher := models.NewViewer(models.ViewerTeacher, "t1", "Sari")
	fresh := teacher
	fresh.Classes = []string{"7B"}

	newRouter := func(auth viewerAuthenticator) *gin.Engine {
		router := gin.New()
		router.GET("/me", JWT(auth), func(c *gin.Context) {
			viewer, ok := ViewerFromContext(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, viewer)
		})
		return router
	}

	router := newRouter(fakeAuthenticator{claims: &models.JWTClaims{Viewer: teacher}, resolved: fresh})

	resp := serve(router, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(router, http.MethodGet, "/me", map[string]string{"Authorization": "Token good"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(router, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(router, http.MethodGet, "/me", map[string]string{"Authorization": "bearer good"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"classes":["7B"]`)

	gone := newRouter(fakeAuthenticator{claims: &models.JWTClaims{Viewer: teacher}, resolveErr: appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")})
	resp = serve(gone, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func withViewer(viewer *models.Viewer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if viewer != nil {
			c.Set(ContextUserKey, *viewer)
		}
		c.Next()
	}
}

func TestRequireCapabilities(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	teacher := models.NewViewer(models.ViewerTeacher, "t1", "Sari")
	admin := models.NewViewer(models.ViewerAdmin, "admin", "Admin")

	cases := []struct {
		name   string
		viewer *models.Viewer
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"teacher lacks manage_students", &teacher, http.StatusForbidden},
		{"admin", &admin, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/x", withViewer(tc.viewer), RequireCapabilities(models.CapEditGrades, models.CapManageStudents), ok)
			assert.Equal(t, tc.want, serve(router, http.MethodGet, "/x", nil).Code)
		})
	}
}

func TestRequireKinds(t *testing.T) {
	teacher := models.NewViewer(models.ViewerTeacher, "t1", "Sari")
	admin := models.NewViewer(models.ViewerAdmin, "admin", "Admin")
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	router := gin.New()
	router.GET("/teacher", withViewer(&teacher), RequireKinds(models.ViewerAdmin), ok)
	router.GET("/admin", withViewer(&admin), RequireKinds(models.ViewerAdmin), ok)
	router.GET("/none", withViewer(nil), RequireKinds(models.ViewerAdmin), ok)

	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/teacher", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/admin", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/none", nil).Code)
}

func TestAuditLogsSuccessfulWrites(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	teacher := models.NewViewer(models.ViewerTeacher, "t1", "Sari")

	router := gin.New()
	router.Use(withViewer(&teacher))
	router.DELETE("/sessions/:id", Audit(logger, "session.delete"), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/sessions", Audit(logger, "session.open"), func(c *gin.Context) { c.Status(http.StatusConflict) })

	serve(router, http.MethodDelete, "/sessions/h1", map[string]string{"User-Agent": "tests"})
	serve(router, http.MethodPost, "/sessions", nil)

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	entry, ok := entries[0].ContextMap()["entry"].(models.AuditEntry)
	require.True(t, ok)
	assert.Equal(t, "session.delete", entry.Action)
	assert.Equal(t, "h1", entry.ResourceID)
	assert.Equal(t, "/sessions/:id", entry.Path)
	assert.Equal(t, models.ViewerTeacher, entry.ViewerKind)
	assert.Equal(t, "t1", entry.ViewerID)
	assert.Equal(t, "tests", entry.UserAgent)
}

type recordedRequest struct {
	method, path string
	status       int
}

type recordingObserver struct {
	requests []recordedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.requests = append(r.requests, recordedRequest{method: method, path: path, status: status})
}

func TestMetricsMiddleware(t *testing.T) {
	rec := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(rec))
	router.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/students/s1", nil)
	serve(router, http.MethodGet, "/nowhere", nil)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, recordedRequest{method: http.MethodGet, path: "/students/:id", status: http.StatusOK}, rec.requests[0])
	assert.Equal(t, recordedRequest{method: http.MethodGet, path: "unmatched", status: http.StatusNotFound}, rec.requests[1])
}

func TestViewerFromContextRejectsForeignValues(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := ViewerFromContext(c)
	assert.False(t, ok)

	c.Set(ContextUserKey, "not a viewer")
	_, ok = ViewerFromContext(c)
	assert.False(t, ok)
}
