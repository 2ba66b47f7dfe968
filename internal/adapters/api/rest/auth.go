package rest

import (
	"context"
	"fmt"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string `json:"token"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ClientID     string `json:"clientId"`
	BusinessType string `json:"business_type"`
}

// Login exchanges credentials for a session token. It never sends a bearer
// token and never triggers the auth failure hook.
func (c *Client) Login(ctx context.Context, email, password string) (ports.LoginResult, error) {
	var body loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		Post("/auth/login")
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("login request: %w", err)
	}
	if !resp.IsSuccess() {
		if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
			return ports.LoginResult{}, &domain.AuthError{StatusCode: resp.StatusCode(), Message: errorMessage(resp.Body())}
		}
		return ports.LoginResult{}, &APIError{
			Method:     resp.Request.Method,
			Path:       "/auth/login",
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
	}

	if err := decodeBody(resp.Body(), &body); err != nil {
		return ports.LoginResult{}, fmt.Errorf("decode login response: %w", err)
	}

	return ports.LoginResult{
		Token: body.Token,
		Profile: domain.Profile{
			Email:        body.Email,
			Name:         body.Name,
			ClientID:     body.ClientID,
			BusinessType: body.BusinessType,
		},
	}, nil
}
