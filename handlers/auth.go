package handlers

import (
	"net/http"

	"giftkit/middleware"
	"giftkit/models"
	"giftkit/services/auth"
	"giftkit/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles registration, OTP login and staff accounts.
type AuthHandler struct {
	Service auth.AuthService
	Logger  *zap.Logger
}

func NewAuthHandler(service auth.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Service: service, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	OTP       string `json:"otp" binding:"required"`
}

// meResponse is the contact shape the wizard prefills from, plus the account fields.
type meResponse struct {
	models.Contact
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
}

// RegisterHandler handles POST /api/auth/register.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	pending, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusAccepted, pending)
}

// VerifyRegistrationHandler handles POST /api/auth/register/verify.
func (h *AuthHandler) VerifyRegistrationHandler(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	resp, err := h.Service.VerifyRegistration(c.Request.Context(), req.SessionID, req.OTP)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	pending, err := h.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusAccepted, pending)
}

// VerifyLoginHandler handles POST /api/auth/login/verify.
func (h *AuthHandler) VerifyLoginHandler(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	resp, err := h.Service.VerifyLogin(c.Request.Context(), req.SessionID, req.OTP)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MeHandler handles GET /api/auth/me.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONError(c, h.Logger, http.StatusUnauthorized, "Insufficient authorization", nil)
		return
	}
	user, err := h.Service.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, meResponse{Contact: user.Contact(), ID: user.ID, Role: user.Role})
}

// CreateStaffHandler handles POST /api/dashboard/staff.
func (h *AuthHandler) CreateStaffHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var req auth.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	user, err := h.Service.CreateStaff(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Logger.Info("Staff account created", zap.String("id", user.ID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, user)
}

// ListAssociatesHandler handles GET /api/dashboard/associates.
func (h *AuthHandler) ListAssociatesHandler(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	users, err := h.Service.ListAssociates(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
