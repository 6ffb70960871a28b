package dto

import "github.com/spec-kit/savings-portal/internal/domain"

// LoginRequest payload for sign-in by email or mobile number.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterRequest payload for OTP-verified registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
}

// PhoneRegisterRequest payload for registration with a verified phone identity.
type PhoneRegisterRequest struct {
	FirebaseIDToken string `json:"firebaseIdToken"`
	Password        string `json:"password"`
}

// SendOTPRequest payload.
type SendOTPRequest struct {
	Identifier string            `json:"identifier"`
	Purpose    domain.OTPPurpose `json:"purpose"`
	Channel    domain.OTPChannel `json:"channel"`
}

// VerifyOTPRequest payload.
type VerifyOTPRequest struct {
	Identifier string            `json:"identifier"`
	Purpose    domain.OTPPurpose `json:"purpose"`
	OTP        string            `json:"otp"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	State     domain.ResolutionState `json:"state"`
	Principal *domain.Principal      `json:"principal,omitempty"`
}

// ScreenResponse is the payload of a rendered screen.
type ScreenResponse struct {
	Screen    string            `json:"screen"`
	Principal *domain.Principal `json:"principal,omitempty"`
}

// MessageResponse carries a backend confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
