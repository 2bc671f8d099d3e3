package connection

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Account is an account as returned by the server.
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

// LoginResult is the result of Login.
type LoginResult struct {
	Token string  `json:"token" table:"-"`
	User  Account `json:"user"`
}

// Health is the result of Health and Ready.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Ready calls GET /ready.
func (c *Client) Ready(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Do(ctx, http.MethodGet, "/ready", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Login exchanges credentials for an auth token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/login", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout revokes the client's token.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, "/logout", nil, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password, email string) error {
	body := map[string]string{"username": username, "password": password}
	if email != "" {
		body["email"] = email
	}
	return c.Do(ctx, http.MethodPost, "/register", body, nil)
}

// Account returns the caller's account.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var a Account
	if err := c.Do(ctx, http.MethodGet, "/account", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ChangeEmail sets the caller's email address.
func (c *Client) ChangeEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	if err := c.Do(ctx, http.MethodPut, "/account/email", map[string]string{"email": email}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ResendConfirmation asks the server to mail a new confirmation link.
func (c *Client) ResendConfirmation(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/confirm_email/resend", nil, nil)
}

// Confirm redeems a confirmation token. It reports the redirect target
// chosen by the server.
func (c *Client) Confirm(ctx context.Context, encoded string) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/confirm_email/"+url.PathEscape(encoded)+"/", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusFound {
		return resp.Header.Get("Location"), nil
	}
	return "", decodeResponse(resp, nil)
}
