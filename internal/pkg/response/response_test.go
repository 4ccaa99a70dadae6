package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/apperror"
)

func render(err error) (int, string) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)

	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body.Error
}

func TestError(t *testing.T) {
	notFound := apperror.New(http.StatusNotFound, "booking not found")

	code, msg := render(notFound)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "booking not found", msg)

	missing := apperror.New(http.StatusBadRequest, "missing required field")
	code, msg = render(fmt.Errorf("%w: email", missing))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing required field: email", msg)

	code, msg = render(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", msg)
}

func TestNewPageResponse(t *testing.T) {
	var items []string
	page := NewPageResponse(items, 2, 10, 0)
	require.NotNil(t, page.Items)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"page":2,"page_size":10,"total":0}`, string(raw))
}
