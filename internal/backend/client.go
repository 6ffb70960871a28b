package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/spec-kit/savings-portal/internal/domain"
	apperrors "github.com/spec-kit/savings-portal/pkg/util"
)

// ErrNoSession means the backend answered but issued no usable credential.
var ErrNoSession = errors.New("backend: no session issued")

// Client talks to the remote auth API. The refresh cookie set by the backend
// lives in the client's cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is added
// when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Login exchanges an email/mobile identifier and password for a session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*domain.AuthResult, error) {
	return c.authExchange(ctx, "/auth/login", loginRequest{Identifier: identifier, Password: password})
}

// Register creates an account after OTP verification and returns its session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.AuthResult, error) {
	return c.authExchange(ctx, "/auth/register", req)
}

// RegisterWithPhone creates an account from a verified phone identity token.
func (c *Client) RegisterWithPhone(ctx context.Context, firebaseIDToken, password string) (*domain.AuthResult, error) {
	return c.authExchange(ctx, "/auth/register-with-phone", phoneRegisterRequest{FirebaseIDToken: firebaseIDToken, Password: password})
}

// Refresh asks for a new access credential using the ambient refresh cookie.
func (c *Client) Refresh(ctx context.Context) (*domain.AuthResult, error) {
	return c.authExchange(ctx, "/auth/refresh", nil)
}

// Me returns the principal behind token.
func (c *Client) Me(ctx context.Context, token string) (*domain.Principal, error) {
	var user userPayload
	if err := c.do(ctx, c.bearer(token), http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, apperrors.NewUpstreamError(http.StatusBadGateway, "invalid response from backend")
	}
	return user.principal(), nil
}

// Logout revokes token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	var out successResponse
	return c.do(ctx, c.bearer(token), http.MethodPost, "/auth/logout", nil, &out)
}

// SendOTP requests a one-time password for identifier.
func (c *Client) SendOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, channel domain.OTPChannel) (string, error) {
	var out messageResponse
	err := c.do(ctx, c.http, http.MethodPost, "/auth/send-otp", sendOTPRequest{Identifier: identifier, Purpose: purpose, Channel: channel}, &out)
	return out.Message, err
}

// VerifyOTP checks a one-time password without consuming a session.
func (c *Client) VerifyOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, otp string) (bool, error) {
	var out validResponse
	err := c.do(ctx, c.http, http.MethodPost, "/auth/verify-otp", verifyOTPRequest{Identifier: identifier, Purpose: purpose, OTP: otp}, &out)
	return out.Valid, err
}

// ForgotPassword starts the password reset flow for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, c.http, http.MethodPost, "/auth/forgot-password", forgotPasswordRequest{Email: email}, &out)
	return out.Message, err
}

// ResetPasswordWithOTP sets a new password using an OTP.
func (c *Client) ResetPasswordWithOTP(ctx context.Context, identifier, otp, newPassword string) (string, error) {
	var out messageResponse
	err := c.do(ctx, c.http, http.MethodPost, "/auth/reset-password-with-otp",
		resetPasswordRequest{Identifier: identifier, OTP: otp, NewPassword: newPassword}, &out)
	return out.Message, err
}

// ChangePassword changes the password of the principal behind token.
func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (string, error) {
	var out messageResponse
	err := c.do(ctx, c.bearer(token), http.MethodPost, "/auth/change-password",
		changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}, &out)
	return out.Message, err
}

func (c *Client) authExchange(ctx context.Context, path string, body any) (*domain.AuthResult, error) {
	var env authEnvelope
	if err := c.do(ctx, c.http, http.MethodPost, path, body, &env); err != nil {
		return nil, err
	}
	if env.Token == "" || env.User == nil || env.User.ID == "" {
		return nil, ErrNoSession
	}
	return env.result(), nil
}

// bearer wraps the base client with a static bearer token source.
func (c *Client) bearer(token string) *http.Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Jar = c.http.Jar
	hc.Timeout = c.http.Timeout
	return hc
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return apperrors.NewUnavailable(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.NewUnavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return apperrors.NewUpstreamError(resp.StatusCode, eb.text())
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewUpstreamError(http.StatusBadGateway, "invalid response from backend")
	}
	return nil
}
