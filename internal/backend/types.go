package backend

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spec-kit/savings-portal/internal/domain"
)

// userPayload is the principal shape returned by /auth/* endpoints.
type userPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	Mobile    *string `json:"mobile"`
	Username  *string `json:"username"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatarUrl"`
}

func (u *userPayload) principal() *domain.Principal {
	if u == nil {
		return nil
	}
	return &domain.Principal{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Username:  u.Username,
		Role:      domain.NormalizeRole(u.Role),
		AvatarURL: u.AvatarURL,
	}
}

// authEnvelope is the success shape of login, register and refresh.
type authEnvelope struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	User      *userPayload `json:"user"`
	ExpiresIn int64        `json:"expiresIn"`
}

func (e authEnvelope) result() *domain.AuthResult {
	return &domain.AuthResult{
		Token:     e.Token,
		Principal: e.User.principal(),
		ExpiresIn: time.Duration(e.ExpiresIn) * time.Second,
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email"`
	OTP      string  `json:"otp"`
	Password string  `json:"password"`
	Username *string `json:"username,omitempty"`
	Mobile   *string `json:"mobile,omitempty"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type phoneRegisterRequest struct {
	FirebaseIDToken string `json:"firebaseIdToken"`
	Password        string `json:"password"`
}

type sendOTPRequest struct {
	Identifier string            `json:"identifier"`
	Purpose    domain.OTPPurpose `json:"purpose"`
	Channel    domain.OTPChannel `json:"channel,omitempty"`
}

type verifyOTPRequest struct {
	Identifier string            `json:"identifier"`
	Purpose    domain.OTPPurpose `json:"purpose"`
	OTP        string            `json:"otp"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type validResponse struct {
	Valid bool `json:"valid"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// errorBody covers the error shapes the API returns: message as a string or
// a list of validation messages, or a bare error string.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func (b errorBody) text() string {
	if len(b.Message) > 0 {
		var single string
		if err := json.Unmarshal(b.Message, &single); err == nil && strings.TrimSpace(single) != "" {
			return single
		}
		var list []string
		if err := json.Unmarshal(b.Message, &list); err == nil && len(list) > 0 {
			return list[0]
		}
	}
	return strings.TrimSpace(b.Error)
}
