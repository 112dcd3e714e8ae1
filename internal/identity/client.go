package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/psvit/storefront/pkg/errors"
	"github.com/psvit/storefront/pkg/httpclient"
)

const providerName = "auth provider"

// Credentials are the sign-in parameters.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Tokens is the provider's response to a successful sign-in.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Client talks to the hosted auth provider's REST endpoints.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	anonKey string
}

// NewClient creates an auth provider client. baseURL is the API root
// without a trailing slash.
func NewClient(client *httpclient.CircuitBreakerClient, baseURL, anonKey string) *Client {
	return &Client{http: client, baseURL: baseURL, anonKey: anonKey}
}

// SignIn exchanges credentials for the provider's token pair.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*Tokens, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encoding credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building sign-in request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Unavailable(providerName, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return nil, apperrors.Unauthorized("invalid email or password")
	default:
		return nil, httpclient.ParseResponseError(resp, providerName)
	}

	var tokens Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &tokens, nil
}

// SignOut revokes the access token with the provider. A provider outage
// is reported but the local session is gone either way.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/logout", http.NoBody)
	if err != nil {
		return fmt.Errorf("building sign-out request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Unavailable(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, providerName)
	}
	return nil
}
