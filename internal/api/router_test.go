package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/auth"
	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/metrics"
)

const (
	staffEmail    = "ops@digigrow.agency"
	staffPassword = "correct horse"
)

type nopNotifier struct{}

func (nopNotifier) BookingCreated(ctx context.Context, b booking.Booking) {}

func newTestRouter(t *testing.T, ready func(context.Context) error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher := auth.NewBcryptPasswordHasherWithCost(4)
	hash, err := hasher.Hash(staffPassword)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)

	return NewRouter(Config{
		Logger:         zap.NewNop(),
		BookingService: booking.NewService(booking.NewMemoryRepository(), nopNotifier{}, booking.Config{DefaultCity: "Delhi"}, zap.NewNop()),
		StaffAuth:      auth.NewStaffAuthenticator(staffEmail, hash, hasher),
		JWTManager:     auth.NewJWTManager("test-secret", 30*time.Minute),
		Gatherer:       reg,
		Ready:          ready,
	})
}

func executeRequest(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := executeRequest(r, http.MethodPost, "/v1/auth/login", LoginRequest{Email: staffEmail, Password: staffPassword}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 1800, resp.ExpiresIn)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t, nil)
	token := login(t, r)

	w := executeRequest(r, http.MethodGet, "/v1/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, staffEmail, me.Email)
	assert.Equal(t, auth.RoleAdmin, me.Role)

	w = executeRequest(r, http.MethodPost, "/v1/auth/login", LoginRequest{Email: staffEmail, Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = executeRequest(r, http.MethodPost, "/v1/auth/login", map[string]string{"email": "nope"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	w := executeRequest(r, http.MethodPost, "/v1/bookings", map[string]string{
		"full_name":    "Karan Shah",
		"email":        "karan@example.com",
		"phone":        "9876543210",
		"service_type": "PPC",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "PENDING", created.Status)

	// staff routes need a token
	w = executeRequest(r, http.MethodGet, "/v1/bookings/"+created.ID, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r)
	w = executeRequest(r, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", map[string]string{"status": "CONFIRMED", "notes": "called client"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = executeRequest(r, http.MethodGet, "/v1/bookings/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"by_status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus["CONFIRMED"])
}

func TestHealthz(t *testing.T) {
	w := executeRequest(newTestRouter(t, nil), http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	down := func(ctx context.Context) error { return errors.New("db down") }
	w = executeRequest(newTestRouter(t, down), http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	metrics.BookingsCreated.Add(0)

	w := executeRequest(r, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "consult_bookings_created_total")
}

func TestAllowedOrigins(t *testing.T) {
	assert.Contains(t, allowedOrigins(false, ""), "http://localhost:3000")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, allowedOrigins(true, "https://a.example, https://b.example"))
}
