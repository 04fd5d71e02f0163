package client

import (
	"context"
	"net/http"

	"github.com/erazemk/zaloga/internal/model"
)

type verifyResult struct {
	User *model.User `json:"user"`
}

// Login authenticates and stores the returned token and user.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	var result model.AuthResult
	err := c.do(ctx, request{
		endpoint: "login",
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     map[string]string{"email": email, "password": password},
	}, &result)
	if err != nil {
		return nil, err
	}
	c.remember(&result)
	return &result, nil
}

// Register creates an account and stores the returned token and user.
func (c *Client) Register(ctx context.Context, email, username, password string) (*model.AuthResult, error) {
	var result model.AuthResult
	err := c.do(ctx, request{
		endpoint: "register",
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     map[string]string{"email": email, "username": username, "password": password},
	}, &result)
	if err != nil {
		return nil, err
	}
	c.remember(&result)
	return &result, nil
}

func (c *Client) remember(result *model.AuthResult) {
	c.SetToken(result.Token)
	c.SetCachedUser(&result.User)
}

// Logout revokes the token on the server. Local auth state is cleared even
// when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.ClearAuth()
	return c.do(ctx, request{
		endpoint: "logout",
		method:   http.MethodPost,
		path:     "/auth/logout",
	}, nil)
}

// ForgotPassword asks the server to send a reset link to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*model.Message, error) {
	var msg model.Message
	err := c.do(ctx, request{
		endpoint: "forgotPassword",
		method:   http.MethodPost,
		path:     "/auth/forgot-password",
		body:     map[string]string{"email": email},
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*model.Message, error) {
	var msg model.Message
	err := c.do(ctx, request{
		endpoint: "resetPassword",
		method:   http.MethodPost,
		path:     "/auth/reset-password",
		body:     map[string]string{"token": token, "newPassword": newPassword},
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*model.Message, error) {
	var msg model.Message
	err := c.do(ctx, request{
		endpoint: "changePassword",
		method:   http.MethodPut,
		path:     "/auth/password",
		body:     map[string]string{"currentPassword": currentPassword, "newPassword": newPassword},
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// VerifyToken returns the user the stored token belongs to.
func (c *Client) VerifyToken(ctx context.Context) (*model.User, error) {
	var result verifyResult
	err := c.do(ctx, request{
		endpoint: "verifyToken",
		method:   http.MethodGet,
		path:     "/auth/verify",
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.User == nil {
		err := c.apiError(ErrRequestFailed, request{endpoint: "verifyToken"}, http.StatusOK, MsgRequestFailed, nil)
		c.log.Error("api request failed", "endpoint", "verifyToken", "error", err)
		return nil, err
	}
	return result.User, nil
}
