// Package rest implements the product repository against a hosted
// PostgREST-style API. Every call goes through the shared retrying HTTP
// client wrapped in a circuit breaker; transport failures, 5xx responses
// and an open breaker all surface as provider-unavailable errors so the
// caller can distinguish a missing product from a broken provider.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/psvit/storefront/internal/domain"
	apperrors "github.com/psvit/storefront/pkg/errors"
	"github.com/psvit/storefront/pkg/httpclient"
)

const providerName = "catalog provider"

// Client talks to the hosted catalog REST API.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	anonKey string
}

// NewClient creates a product repository backed by the hosted REST API.
// baseURL is the API root without a trailing slash; anonKey is sent as
// both the apikey header and the bearer token.
func NewClient(client *httpclient.CircuitBreakerClient, baseURL, anonKey string) *Client {
	return &Client{http: client, baseURL: baseURL, anonKey: anonKey}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes the request and normalizes transport and breaker failures
// into provider-unavailable errors.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		// covers connection failures, exhausted retries and an open breaker
		return nil, apperrors.Unavailable(providerName, err)
	}
	return resp, nil
}

// GetByID fetches a single product. An empty result set means the product
// does not exist.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	path := "/rest/v1/products?select=*&id=eq." + url.QueryEscape(id)

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, providerName)
	}

	var products []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decoding product response: %w", err)
	}
	if len(products) == 0 {
		return nil, apperrors.NotFound("product", id)
	}
	return &products[0], nil
}

// List fetches the full catalog ordered newest first.
func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/products?select=*&order=created_at.desc", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, providerName)
	}

	var products []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decoding product list: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Create inserts a product and reads back the stored representation so
// server-side defaults end up on the caller's struct.
func (c *Client) Create(ctx context.Context, p *domain.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding product: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/products", body)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, providerName)
	}

	var created []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fmt.Errorf("decoding created product: %w", err)
	}
	if len(created) > 0 {
		*p = created[0]
	}
	return nil
}

// Update patches an existing product in place.
func (c *Client) Update(ctx context.Context, p *domain.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding product: %w", err)
	}

	path := "/rest/v1/products?id=eq." + url.QueryEscape(p.ID)
	req, err := c.newRequest(ctx, http.MethodPatch, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, providerName)
	}

	var updated []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return fmt.Errorf("decoding updated product: %w", err)
	}
	if len(updated) == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	*p = updated[0]
	return nil
}

// Delete removes a product. The API reports how many rows it touched via
// the returned representation; an empty result means nothing matched.
func (c *Client) Delete(ctx context.Context, id string) error {
	path := "/rest/v1/products?id=eq." + url.QueryEscape(id)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, providerName)
	}

	if resp.StatusCode == http.StatusOK {
		var deleted []domain.Product
		if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
			return fmt.Errorf("decoding delete response: %w", err)
		}
		if len(deleted) == 0 {
			return apperrors.NotFound("product", id)
		}
	}
	return nil
}
