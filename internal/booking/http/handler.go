package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
	logger  *zap.Logger
}

func NewHandler(service booking.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// fail writes the error response. Store failures are logged and reported as a generic 500.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, booking.ErrStore) {
		h.logger.Error("booking store failure",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, err)
}

// Create accepts a consultation request from the public site.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	req := booking.CreateRequest{
		FullName:      body.FullName,
		Email:         body.Email,
		Phone:         body.Phone,
		BusinessName:  body.BusinessName,
		City:          body.City,
		ServiceType:   body.ServiceType,
		MonthlyBudget: body.MonthlyBudget,
		Message:       body.Message,
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// List returns bookings newest first, optionally filtered by status.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	status, err := req.Validate()
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := booking.Filter{
		Status:   status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// UpdateStatus moves a booking to a new status and optionally replaces its notes.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), uri.ID, booking.UpdateStatusRequest{
		Status: body.Status,
		Notes:  body.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStatsResponse(stats))
}

func (h *Handler) ServiceTypes(c *gin.Context) {
	counts, err := h.service.ServiceTypeBreakdown(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]ServiceTypeCountResponse, len(counts))
	for i, sc := range counts {
		items[i] = ServiceTypeCountResponse{ServiceType: sc.ServiceType, Count: sc.Count}
	}
	c.JSON(http.StatusOK, items)
}
