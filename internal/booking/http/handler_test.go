package http

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/response"
)

type nopNotifier struct{}

func (nopNotifier) BookingCreated(ctx context.Context, b booking.Booking) {}

func passThrough(c *gin.Context) { c.Next() }

func newTestRouter(t *testing.T, repo booking.Repository, rateLimit gin.HandlerFunc, admin ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if repo == nil {
		repo = booking.NewMemoryRepository()
	}
	if rateLimit == nil {
		rateLimit = passThrough
	}
	if len(admin) == 0 {
		admin = []gin.HandlerFunc{passThrough}
	}

	clock := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc := booking.NewService(repo, nopNotifier{}, booking.Config{
		DefaultCity: "Delhi",
		Location:    time.UTC,
		Now:         func() time.Time { return clock },
	}, zap.NewNop())

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, zap.NewNop()), rateLimit, admin...)
	return r
}

func executeRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"full_name":      "Priya Nair",
		"email":          "priya@example.com",
		"phone":          "+919812345678",
		"business_name":  "Nair Textiles",
		"service_type":   "SEO",
		"monthly_budget": "50k-1L",
	}
}

func createBooking(t *testing.T, r *gin.Engine, body map[string]any) BookingResponse {
	t.Helper()
	w := executeRequest(r, http.MethodPost, "/v1/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreateBooking(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	resp := createBooking(t, r, validBody())
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "Delhi", resp.City)
	assert.Equal(t, "Nair Textiles", resp.BusinessName)
	assert.Equal(t, resp.CreatedAt, resp.UpdatedAt)
	assert.Nil(t, resp.ScheduledDate)
}

func TestCreateBooking_Validation(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	cases := map[string]func(map[string]any){
		"missing email":    func(b map[string]any) { delete(b, "email") },
		"bad email":        func(b map[string]any) { b["email"] = "not-an-email" },
		"short phone":      func(b map[string]any) { b["phone"] = "12345" },
		"letters in phone": func(b map[string]any) { b["phone"] = "+91abc4567890" },
		"missing service":  func(b map[string]any) { b["service_type"] = "" },
		"long message":     func(b map[string]any) { b["message"] = string(bytes.Repeat([]byte("x"), 2001)) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			body := validBody()
			mutate(body)
			w := executeRequest(r, http.MethodPost, "/v1/bookings", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	// nothing was stored
	w := executeRequest(r, http.MethodGet, "/v1/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page response.PageResponse[BookingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Zero(t, page.Total)
}

func TestCreateBooking_WhitespaceOnlyName(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	body := validBody()
	body["full_name"] = "   "

	w := executeRequest(r, http.MethodPost, "/v1/bookings", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing required field: full_name", decodeError(t, w))
}

func TestGetBooking(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	created := createBooking(t, r, validBody())

	w := executeRequest(r, http.MethodGet, "/v1/bookings/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created, got)

	w = executeRequest(r, http.MethodGet, "/v1/bookings/6f1d9a2c-1b1e-4c2a-9d5f-0a0b0c0d0e0f", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "booking not found", decodeError(t, w))

	w = executeRequest(r, http.MethodGet, "/v1/bookings/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	created := createBooking(t, r, validBody())

	w := executeRequest(r, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", map[string]any{
		"status": "CONFIRMED",
		"notes":  "called client",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "CONFIRMED", got.Status)
	assert.Equal(t, "called client", got.Notes)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	// omitted notes leave them alone
	w = executeRequest(r, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "COMPLETED", got.Status)
	assert.Equal(t, "called client", got.Notes)
}

func TestUpdateStatus_Errors(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	created := createBooking(t, r, validBody())

	w := executeRequest(r, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", map[string]any{"status": "ARCHIVED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid booking status", decodeError(t, w))

	w = executeRequest(r, http.MethodPatch, "/v1/bookings/"+created.ID+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = executeRequest(r, http.MethodPatch, "/v1/bookings/6f1d9a2c-1b1e-4c2a-9d5f-0a0b0c0d0e0f/status", map[string]any{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBookings(t *testing.T) {
	r := newTestRouter(t, nil, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, createBooking(t, r, validBody()).ID)
	}
	w := executeRequest(r, http.MethodPatch, "/v1/bookings/"+ids[0]+"/status", map[string]any{"status": "NO_SHOW"})
	require.Equal(t, http.StatusOK, w.Code)

	w = executeRequest(r, http.MethodGet, "/v1/bookings?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page response.PageResponse[BookingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PageSize)
	assert.Len(t, page.Items, 2)

	w = executeRequest(r, http.MethodGet, "/v1/bookings?status=no_show", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)

	w = executeRequest(r, http.MethodGet, "/v1/bookings?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = executeRequest(r, http.MethodGet, "/v1/bookings?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	r := newTestRouter(t, nil, nil)
	for _, st := range []string{"SEO", "SEO", "PPC"} {
		body := validBody()
		body["service_type"] = st
		createBooking(t, r, body)
	}

	w := executeRequest(r, http.MethodGet, "/v1/bookings/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Today)
	assert.Len(t, stats.ByStatus, 6)
	assert.Equal(t, 3, stats.ByStatus["PENDING"])
	assert.Equal(t, 0, stats.ByStatus["CANCELLED"])

	w = executeRequest(r, http.MethodGet, "/v1/bookings/stats/service-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var counts []ServiceTypeCountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, []ServiceTypeCountResponse{{ServiceType: "SEO", Count: 2}, {ServiceType: "PPC", Count: 1}}, counts)
}

func TestStaffRoutesRequireAdmin(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
	}
	r := newTestRouter(t, nil, nil, deny)

	createBooking(t, r, validBody())

	for _, path := range []string{"/v1/bookings", "/v1/bookings/stats", "/v1/bookings/stats/service-types", "/v1/bookings/6f1d9a2c-1b1e-4c2a-9d5f-0a0b0c0d0e0f"} {
		w := executeRequest(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCreateIsRateLimited(t *testing.T) {
	limited := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
	r := newTestRouter(t, nil, limited)

	w := executeRequest(r, http.MethodPost, "/v1/bookings", validBody())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = executeRequest(r, http.MethodGet, "/v1/bookings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

type brokenRepo struct {
	booking.Repository
}

func (brokenRepo) Create(ctx context.Context, b *booking.Booking) error {
	return errors.New("connection refused")
}

func TestStoreFailureIsInternalError(t *testing.T) {
	r := newTestRouter(t, brokenRepo{Repository: booking.NewMemoryRepository()}, nil)

	w := executeRequest(r, http.MethodPost, "/v1/bookings", validBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w))
}
