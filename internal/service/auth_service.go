package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/savings-portal/internal/auth"
	"github.com/spec-kit/savings-portal/internal/backend"
	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/session"
	apperrors "github.com/spec-kit/savings-portal/pkg/util"
)

// AuthAPI is the slice of the backend used by sign-in, registration and
// password flows.
type AuthAPI interface {
	Login(ctx context.Context, identifier, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*domain.AuthResult, error)
	RegisterWithPhone(ctx context.Context, firebaseIDToken, password string) (*domain.AuthResult, error)
	Logout(ctx context.Context, token string) error
	SendOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, channel domain.OTPChannel) (string, error)
	VerifyOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, otp string) (bool, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPasswordWithOTP(ctx context.Context, identifier, otp, newPassword string) (string, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (string, error)
}

// RegisterInput carries the fields of the registration form.
type RegisterInput struct {
	Email    string
	OTP      string
	Password string
	Username string
	Mobile   string
}

// AuthService drives the session store from the sign-in and registration
// forms. Only establish and clear ever touch the store.
type AuthService struct {
	api    AuthAPI
	store  *session.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(api AuthAPI, store *session.Store, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{api: api, store: store, logger: logger, now: time.Now}
}

// Login signs in with an email or mobile number.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.NewValidationError("identifier and password required", nil)
	}
	res, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, res)
}

// Register creates an account verified by an emailed OTP and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Principal, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.OTP == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("email, otp and password required", nil)
	}
	req := backend.RegisterRequest{
		Email:    in.Email,
		OTP:      in.OTP,
		Password: in.Password,
		Username: optional(in.Username),
		Mobile:   optional(in.Mobile),
	}
	res, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, res)
}

// RegisterWithPhone creates an account from a verified phone identity and
// signs it in.
func (s *AuthService) RegisterWithPhone(ctx context.Context, firebaseIDToken, password string) (*domain.Principal, error) {
	if strings.TrimSpace(firebaseIDToken) == "" || password == "" {
		return nil, apperrors.NewValidationError("firebaseIdToken and password required", nil)
	}
	res, err := s.api.RegisterWithPhone(ctx, firebaseIDToken, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, res)
}

// Logout revokes the credential on the backend when possible and always
// clears the local session. Backend failures are logged, not returned.
func (s *AuthService) Logout(ctx context.Context) error {
	if token := s.store.Credential(); token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Warn("backend logout failed", zap.Error(err))
		}
	}
	return s.store.Clear(ctx)
}

// SendOTP requests a one-time password.
func (s *AuthService) SendOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, channel domain.OTPChannel) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", apperrors.NewValidationError("identifier required", nil)
	}
	if !purpose.Valid() {
		return "", apperrors.NewValidationError("invalid otp purpose", map[string]any{"purpose": purpose})
	}
	if channel != "" && !channel.Valid() {
		return "", apperrors.NewValidationError("invalid otp channel", map[string]any{"channel": channel})
	}
	return s.api.SendOTP(ctx, identifier, purpose, channel)
}

// VerifyOTP checks a one-time password.
func (s *AuthService) VerifyOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, otp string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || otp == "" {
		return false, apperrors.NewValidationError("identifier and otp required", nil)
	}
	if !purpose.Valid() {
		return false, apperrors.NewValidationError("invalid otp purpose", map[string]any{"purpose": purpose})
	}
	return s.api.VerifyOTP(ctx, identifier, purpose, otp)
}

// ForgotPassword starts a password reset.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperrors.NewValidationError("email required", nil)
	}
	return s.api.ForgotPassword(ctx, email)
}

// ResetPassword completes a reset with an OTP. It does not sign in.
func (s *AuthService) ResetPassword(ctx context.Context, identifier, otp, newPassword string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || otp == "" || newPassword == "" {
		return "", apperrors.NewValidationError("identifier, otp and newPassword required", nil)
	}
	return s.api.ResetPasswordWithOTP(ctx, identifier, otp, newPassword)
}

// ChangePassword changes the signed-in principal's password.
func (s *AuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	if currentPassword == "" || newPassword == "" {
		return "", apperrors.NewValidationError("currentPassword and newPassword required", nil)
	}
	token := s.store.Credential()
	if token == "" {
		return "", apperrors.NewUnauthorized("sign in required")
	}
	return s.api.ChangePassword(ctx, token, currentPassword, newPassword)
}

func (s *AuthService) establish(ctx context.Context, res *domain.AuthResult) (*domain.Principal, error) {
	ttl := res.ExpiresIn
	if ttl <= 0 {
		ttl = auth.TokenTTL(res.Token, s.now())
	}
	if err := s.store.Establish(ctx, res.Token, res.Principal, ttl); err != nil {
		if errors.Is(err, session.ErrEmptyCredential) || errors.Is(err, session.ErrInvalidPrincipal) {
			s.logger.Warn("backend issued an unusable session", zap.Error(err))
			return nil, apperrors.NewUpstreamError(http.StatusBadGateway, "invalid response from backend")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.store.CurrentPrincipal(), nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
