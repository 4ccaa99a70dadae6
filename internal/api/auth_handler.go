package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/auth"
)

type AuthHandler struct {
	staff      *auth.StaffAuthenticator
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthHandler(
	staff *auth.StaffAuthenticator,
	jwtManager *auth.JWTManager,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		staff:      staff,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

//
// POST /v1/auth/login
//

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	role, err := h.staff.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("staff login rejected", zap.String("email", req.Email), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid email or password",
		})
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(strings.ToLower(strings.TrimSpace(req.Email)), role)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.jwtManager.TTL().Seconds()),
	})
}

//
// GET /v1/auth/me
//

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, MeResponse{
		Email: auth.GetEmail(c),
		Role:  auth.GetRole(c),
	})
}
