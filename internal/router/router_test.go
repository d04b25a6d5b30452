package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/internal/state"
	"github.com/noah-isme/gradebook-api/pkg/storage"
)

func buildEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := service.NewMetricsService()
	d := service.NewDispatcher(state.NewStore(models.Dataset{}), nil, nil, metrics)
	bootstrap := service.NewBootstrapService(nil, d, nil)
	_, err := bootstrap.Load(context.Background())
	require.NoError(t, err)

	auth := service.NewAuthService(d, nil, nil, service.AuthConfig{
		AccessTokenSecret: "router-secret",
		Issuer:            "gradebook",
		AdminUsername:     "admin",
		AdminPassword:     "admin-pass",
	})
	settings := service.NewSettingsService(d, nil, nil)
	recaps := service.NewRecapService(d, nil, nil, nil)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	reports := service.NewReportService(recaps, settings, files, storage.NewSignedURLSigner("router-secret", time.Hour), nil, nil, service.ReportServiceConfig{APIPrefix: "/api/v1"})

	return New(Options{
		Metrics:          metrics,
		Auth:             auth,
		AuthHandler:      handler.NewAuthHandler(auth),
		BootstrapHandler: handler.NewBootstrapHandler(bootstrap),
		StudentHandler:   handler.NewStudentHandler(service.NewStudentService(d, nil, nil), service.NewImportService(d, nil)),
		GradeHandler:     handler.NewGradeHandler(service.NewGradeService(d, nil, nil)),
		SessionHandler:   handler.NewSessionHandler(service.NewSessionService(d, nil, nil)),
		TeacherHandler:   handler.NewTeacherHandler(service.NewTeacherService(d, nil, nil)),
		SettingsHandler:  handler.NewSettingsHandler(settings),
		RecapHandler:     handler.NewRecapHandler(recaps),
		ReportHandler:    handler.NewReportHandler(reports),
		MetricsHandler:   handler.NewMetricsHandler(metrics.Handler(), bootstrap, nil),
	})
}

func do(engine http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, engine http.Handler) string {
	t.Helper()
	resp := do(engine, http.MethodPost, "/api/v1/auth/login", "", `{"kind":"admin","username":"admin","password":"admin-pass"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var body struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.AccessToken)
	return body.Data.AccessToken
}

func TestRouterProtectsAPI(t *testing.T) {
	engine := buildEngine(t)

	resp := do(engine, http.MethodGet, "/api/v1/students", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))

	token := login(t, engine)
	resp = do(engine, http.MethodGet, "/api/v1/students", token, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"pagination"`)

	resp = do(engine, http.MethodGet, "/api/v1/teachers", token, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = do(engine, http.MethodGet, "/api/v1/me/grades", token, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRouterProbesAndMetrics(t *testing.T) {
	engine := buildEngine(t)

	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/health", "", "").Code)

	resp := do(engine, http.MethodGet, "/ready", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"source":"sample"`)
	assert.Contains(t, resp.Body.String(), `"cache":"disabled"`)

	resp = do(engine, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "http_requests_total")
	assert.Contains(t, resp.Body.String(), "gradebook_store_records")

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/students", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
