package api

import (
	"context"
	"net/url"
)

// LoginUser exchanges credentials for a token pair. It does not fetch the
// nested profile; the session store composes the two calls into one atomic
// login.
func (c *Client) LoginUser(ctx context.Context, email, password string, role Role) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "email and password are required"}
	}
	var res LoginResult
	err := c.doOnce(ctx, "POST", "/loginUser", nil, map[string]any{
		"email":    email,
		"password": password,
		"role":     role,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterUser creates an account. Success does not log the user in.
func (c *Client) RegisterUser(ctx context.Context, payload RegisterPayload) error {
	if payload.Email == "" || payload.Password == "" {
		return &ValidationError{Message: "email and password are required"}
	}
	if len(payload.Password) < 8 {
		return &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	if payload.Role == RoleSeller && payload.BusinessName == "" {
		return &ValidationError{Field: "business_name", Message: "business name is required for sellers"}
	}
	return c.doOnce(ctx, "POST", "/registerUser", nil, payload, nil)
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, &AuthError{Message: "no refresh token"}
	}
	var res RefreshResult
	err := c.doOnce(ctx, "POST", "/refreshToken", nil, map[string]string{
		"refreshToken": refreshToken,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetUserDetails fetches the full nested profile for a user ID.
func (c *Client) GetUserDetails(ctx context.Context, uid string) (*User, error) {
	return c.userDetails(ctx, uid, c.do)
}

// GetUserDetailsOnce is GetUserDetails without the 401 refresh-and-retry:
// an auth failure surfaces directly. The login saga uses it, since mid-login
// there is no committed pair to refresh and a refresh attempt would re-enter
// the session store.
func (c *Client) GetUserDetailsOnce(ctx context.Context, uid string) (*User, error) {
	return c.userDetails(ctx, uid, c.doOnce)
}

func (c *Client) userDetails(ctx context.Context, uid string, call func(context.Context, string, string, url.Values, any, any) error) (*User, error) {
	q := url.Values{"uid": {uid}}
	var res struct {
		User User `json:"user"`
	}
	if err := call(ctx, "GET", "/getUserDetails", q, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// LogoutUser tells the backend to revoke the session. Callers clear local
// state regardless of the outcome.
func (c *Client) LogoutUser(ctx context.Context, uid string) error {
	return c.doOnce(ctx, "POST", "/logoutUser", nil, map[string]string{"uid": uid}, nil)
}
