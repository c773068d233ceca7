package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	userRepo "giftkit/database/repository/user"
	"giftkit/models"
	"giftkit/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeOTPPending = 100

	kindRegister = "register"
	kindLogin    = "login"

	statusPendingOTP = "pending_otp"
)

func NewAuthService(repo userRepo.UserRepository, otp OTPStore, sessions SessionStore, tokens TokenIssuer, logger *zap.Logger) *DefaultAuthService {
	return &DefaultAuthService{Repo: repo, OTP: otp, Sessions: sessions, Tokens: tokens, Logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register parks the new account in an auth session and sends an OTP to its phone.
func (s *DefaultAuthService) Register(ctx context.Context, req RegisterRequest) (*Pending, error) {
	email := normalizeEmail(req.Email)
	if err := VerifyPasswordComplexity(req.Password); err != nil {
		return nil, err
	}

	_, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, userRepo.ErrUserNotFound) {
		s.Logger.Error("Register: failed to check for existing user", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.Logger.Error("Register: failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	now := time.Now().UTC()
	sessionID := uuid.NewString()
	session := utils.AuthSession{
		Kind:          kindRegister,
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		Company:       strings.TrimSpace(req.Company),
		PasswordHash:  string(hash),
		Status:        statusPendingOTP,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	return s.startOTP(ctx, sessionID, session)
}

func (s *DefaultAuthService) startOTP(ctx context.Context, sessionID string, session utils.AuthSession) (*Pending, error) {
	if err := s.Sessions.Save(ctx, sessionID, session); err != nil {
		return nil, fmt.Errorf("failed to save auth session: %w", err)
	}
	if err := s.OTP.Issue(ctx, sessionID, session.PhoneNumber); err != nil {
		_ = s.Sessions.Delete(ctx, sessionID)
		return nil, err
	}
	return &Pending{SessionID: sessionID, Code: codeOTPPending, Message: "verification code sent"}, nil
}

// checkOTP loads a pending session of the given kind and consumes its OTP.
func (s *DefaultAuthService) checkOTP(ctx context.Context, sessionID, kind, otp string) (*utils.AuthSession, error) {
	session, err := s.Sessions.Get(ctx, sessionID)
	if errors.Is(err, utils.ErrAuthSessionNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if session.Kind != kind {
		return nil, ErrSessionExpired
	}

	if err := s.OTP.Verify(ctx, sessionID, strings.TrimSpace(otp)); err != nil {
		if errors.Is(err, utils.ErrOTPAttemptsExceeded) {
			_ = s.Sessions.Delete(ctx, sessionID)
			return nil, ErrSessionExpired
		}
		if errors.Is(err, utils.ErrOTPNotFound) || errors.Is(err, utils.ErrOTPMismatch) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	return session, nil
}

func (s *DefaultAuthService) VerifyRegistration(ctx context.Context, sessionID, otp string) (*AuthResponse, error) {
	session, err := s.checkOTP(ctx, sessionID, kindRegister, otp)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         session.Name,
		Email:        session.Email,
		PhoneNumber:  session.PhoneNumber,
		Company:      session.Company,
		PasswordHash: session.PasswordHash,
		Role:         models.RoleCustomer,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, userRepo.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		s.Logger.Error("VerifyRegistration: failed to create user", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}
	_ = s.Sessions.Delete(ctx, sessionID)

	s.Logger.Info("user registered", zap.String("userID", user.ID))
	return s.respond(user)
}

// Login checks the password and sends an OTP to the account's phone.
func (s *DefaultAuthService) Login(ctx context.Context, email, password string) (*Pending, error) {
	user, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, userRepo.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	session := utils.AuthSession{
		Kind:          kindLogin,
		UserID:        user.ID,
		Email:         user.Email,
		PhoneNumber:   user.PhoneNumber,
		Status:        statusPendingOTP,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	return s.startOTP(ctx, uuid.NewString(), session)
}

func (s *DefaultAuthService) VerifyLogin(ctx context.Context, sessionID, otp string) (*AuthResponse, error) {
	session, err := s.checkOTP(ctx, sessionID, kindLogin, otp)
	if err != nil {
		return nil, err
	}
	user, err := s.Repo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	_ = s.Sessions.Delete(ctx, sessionID)

	s.Logger.Info("user signed in", zap.String("userID", user.ID), zap.String("role", string(user.Role)))
	return s.respond(user)
}

func (s *DefaultAuthService) respond(user *models.User) (*AuthResponse, error) {
	token, err := s.Tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		s.Logger.Error("failed to generate auth token", zap.Error(err))
		return nil, fmt.Errorf("sign in failed, please try again")
	}
	return &AuthResponse{
		ID:          user.ID,
		Token:       token,
		Name:        user.Name,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	}, nil
}

func (s *DefaultAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.Repo.GetByID(ctx, userID)
}

// CreateStaff adds an associate or admin account. Staff skip OTP; the admin vouches
// for them.
func (s *DefaultAuthService) CreateStaff(ctx context.Context, actor models.Actor, req StaffRequest) (*models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	role, err := models.ParseRole(req.Role)
	if err != nil || !role.IsStaff() {
		return nil, ErrInvalidRole
	}
	if err := VerifyPasswordComplexity(req.Password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.PhoneNumber, req.Password, role)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("staff account created", zap.String("userID", user.ID), zap.String("role", string(role)), zap.String("by", actor.UserID))
	return user, nil
}

func (s *DefaultAuthService) createUser(ctx context.Context, name, email, phone, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PhoneNumber:  strings.TrimSpace(phone),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, userRepo.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *DefaultAuthService) ListAssociates(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.Repo.ListByRole(ctx, models.RoleAssociate)
}

// EnsureAdmin creates the first admin account when none exists yet.
func (s *DefaultAuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		s.Logger.Debug("admin bootstrap skipped, no credentials configured")
		return nil
	}
	n, err := s.Repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := VerifyPasswordComplexity(password); err != nil {
		return fmt.Errorf("admin bootstrap: %w", err)
	}

	user, err := s.createUser(ctx, "Administrator", email, "", password, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("admin bootstrap: %w", err)
	}
	s.Logger.Info("admin account created", zap.String("userID", user.ID), zap.String("email", user.Email))
	return nil
}
