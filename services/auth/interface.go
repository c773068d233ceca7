package auth

import (
	"context"

	"giftkit/database/repository"
	"giftkit/models"
	"giftkit/utils"

	"go.uber.org/zap"
)

// AuthService covers OTP-verified registration and login plus staff management.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*Pending, error)
	VerifyRegistration(ctx context.Context, sessionID, otp string) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*Pending, error)
	VerifyLogin(ctx context.Context, sessionID, otp string) (*AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	CreateStaff(ctx context.Context, actor models.Actor, req StaffRequest) (*models.User, error)
	ListAssociates(ctx context.Context, actor models.Actor) ([]models.User, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

// OTPStore issues and checks one-time passwords keyed by auth session.
type OTPStore interface {
	Issue(ctx context.Context, key, phoneNumber string) error
	Verify(ctx context.Context, key, otp string) error
}

// SessionStore keeps registrations and logins that are waiting for their OTP.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, session utils.AuthSession) error
	Get(ctx context.Context, sessionID string) (*utils.AuthSession, error)
	Delete(ctx context.Context, sessionID string) error
}

type TokenIssuer interface {
	GenerateToken(subject, email, role string) (string, error)
}

type RegisterRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"required,min=7,max=20"`
	Company     string `json:"company" binding:"max=160"`
	Password    string `json:"password" binding:"required"`
}

type StaffRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"required,min=7,max=20"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role" binding:"required"`
}

// Pending is returned while an OTP is outstanding. Code 100 means "OTP sent".
type Pending struct {
	SessionID string `json:"sessionId"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

// AuthResponse contains the user's ID, token, and additional details.
type AuthResponse struct {
	ID          string      `json:"id"`
	Token       string      `json:"token"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        models.Role `json:"role"`
}

// DefaultAuthService is the production implementation.
type DefaultAuthService struct {
	Repo     repository.UserRepository
	OTP      OTPStore
	Sessions SessionStore
	Tokens   TokenIssuer
	Logger   *zap.Logger
}
