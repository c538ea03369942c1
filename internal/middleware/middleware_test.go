package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/middleware"
)

const testSecret = "test-secret"

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func mustMakeJWT(t *testing.T, secret string, sub any, role string, signingMethod jwt.SigningMethod) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  1,
		"exp":  9999999999,
	}
	s, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func runRequest(t *testing.T, e *echo.Echo, method, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func identityHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return c.JSON(http.StatusOK, mwOKResponse{UserID: userID, Role: role})
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Rejects(t *testing.T) {
	tests := []struct {
		name string
		auth string
	}{
		{"no header", ""},
		{"bad scheme", "Token abc.def.ghi"},
		{"empty token", "Bearer  "},
		{"bad signature", "Bearer " + mustMakeJWT(t, "wrong-secret", 1, "USER", jwt.SigningMethodHS256)},
		{"wrong alg", "Bearer " + mustMakeJWT(t, testSecret, 1, "USER", jwt.SigningMethodHS512)},
		{"missing role", "Bearer " + mustMakeJWT(t, testSecret, 1, "", jwt.SigningMethodHS256)},
		{"non numeric sub", "Bearer " + mustMakeJWT(t, testSecret, "alice", "USER", jwt.SigningMethodHS256)},
		{"zero sub", "Bearer " + mustMakeJWT(t, testSecret, 0, "USER", jwt.SigningMethodHS256)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", identityHandler, middleware.AuthJWT(testSecret))

			rec := runRequest(t, e, http.MethodGet, "/protected", tt.auth)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
		})
	}
}

func TestAuthJWT_SetsContext(t *testing.T) {
	for _, sub := range []any{123, "123"} {
		e := echo.New()
		e.GET("/protected", identityHandler, middleware.AuthJWT(testSecret))

		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+mustMakeJWT(t, testSecret, sub, "USER", jwt.SigningMethodHS256))

		require.Equal(t, http.StatusOK, rec.Code)
		var body mwOKResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, int64(123), body.UserID)
		assert.Equal(t, "USER", body.Role)
	}
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	e := echo.New()
	e.GET("/admin", identityHandler, middleware.AuthJWT(testSecret), middleware.AdminRoleGuard())

	rec := runRequest(t, e, http.MethodGet, "/admin", "Bearer "+mustMakeJWT(t, testSecret, 1, "USER", jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin only", decodeMWError(t, rec).Error)

	rec = runRequest(t, e, http.MethodGet, "/admin", "Bearer "+mustMakeJWT(t, testSecret, 1, "ADMIN", jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleGuard_WithoutAuthIsUnauthorized(t *testing.T) {
	e := echo.New()
	e.GET("/admin", identityHandler, middleware.AdminRoleGuard())

	rec := runRequest(t, e, http.MethodGet, "/admin", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// HTTPMetrics
// =====================

func TestHTTPMetrics_RecordsRouteAndStatus(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := metrics.New(mp.Meter("test"))
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.HTTPMetrics(m))
	e.GET("/orders/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return echo.NewHTTPError(http.StatusNotFound, "missing")
		}
		return c.NoContent(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, runRequest(t, e, http.MethodGet, "/orders/7", "").Code)
	assert.Equal(t, http.StatusNotFound, runRequest(t, e, http.MethodGet, "/orders/0", "").Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	statuses := map[int64]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "http.server.request.count" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				assert.Equal(t, "/orders/:id", route.AsString())
				status, _ := dp.Attributes.Value("http.status_code")
				statuses[status.AsInt64()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[int64]int64{200: 1, 404: 1}, statuses)
}
