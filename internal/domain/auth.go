package domain

import "time"

// AuthResult is what the backend hands back after login, register or refresh.
type AuthResult struct {
	Token     string
	Principal *Principal
	ExpiresIn time.Duration
}

// OTPPurpose tags why a one-time password was requested.
type OTPPurpose string

const (
	OTPPurposeRegister       OTPPurpose = "REGISTER"
	OTPPurposeForgotPassword OTPPurpose = "FORGOT_PASSWORD"
)

// OTPChannel selects the delivery channel for a one-time password.
type OTPChannel string

const (
	OTPChannelEmail OTPChannel = "EMAIL"
	OTPChannelSMS   OTPChannel = "SMS"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeRegister || p == OTPPurposeForgotPassword
}

// Valid reports whether c is a known channel.
func (c OTPChannel) Valid() bool {
	return c == OTPChannelEmail || c == OTPChannelSMS
}
