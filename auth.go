package amora

import (
	"context"
	"net/http"
)

// ============================================================================
// Auth
// ============================================================================

// AuthClient handles login, registration, and account recovery.
type AuthClient struct {
	client *Client
}

// Login exchanges credentials for a bearer token. The returned session carries
// the token and the account it belongs to; call Client.SetToken with it to
// authenticate subsequent requests.
func (ac *AuthClient) Login(ctx context.Context, email, password string) (*AuthSession, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	data, err := ac.client.doRequest(ctx, http.MethodPost, "/login", body, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[AuthSession](data)
}

// Register creates an account from the completed registration wizard and
// returns an authenticated session.
func (ac *AuthClient) Register(ctx context.Context, opts *RegisterOptions) (*AuthSession, error) {
	data, err := ac.client.doRequest(ctx, http.MethodPost, "/register", opts, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[AuthSession](data)
}

// Logout revokes the current token server-side. The client keeps its local
// copy; callers clear it with SetToken("").
func (ac *AuthClient) Logout(ctx context.Context) error {
	_, err := ac.client.doRequest(ctx, http.MethodPost, "/logout", nil, nil)
	return err
}

// Me returns the authenticated account.
func (ac *AuthClient) Me(ctx context.Context) (*User, error) {
	data, err := ac.client.doRequest(ctx, http.MethodGet, "/user", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[User](data)
}

// ForgotPassword requests a password-reset email.
func (ac *AuthClient) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	_, err := ac.client.doRequest(ctx, http.MethodPost, "/forgot-password/email", body, nil)
	return err
}

// ResetPassword completes a password reset with the emailed token.
func (ac *AuthClient) ResetPassword(ctx context.Context, opts *ResetPasswordOptions) error {
	_, err := ac.client.doRequest(ctx, http.MethodPost, "/forgot-password/reset", opts, nil)
	return err
}

// ResendVerification re-sends the address-verification email for the
// authenticated account.
func (ac *AuthClient) ResendVerification(ctx context.Context) error {
	_, err := ac.client.doRequest(ctx, http.MethodPost, "/email/verification-notification", nil, nil)
	return err
}
