package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psvit/storefront/internal/domain"
	apperrors "github.com/psvit/storefront/pkg/errors"
	"github.com/psvit/storefront/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 2 * time.Second

	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-test"),
		testLogger(),
	)
	return NewClient(cb, srv.URL, "anon-key")
}

func TestClientGetByID(t *testing.T) {
	want := domain.Product{
		ID:       "p1",
		Name:     "Epson Scanner",
		Price:    19900,
		Category: domain.CategoryScanners,
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode([]domain.Product{want})
	})

	got, err := client.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Price, got.Price)
}

func TestClientGetByIDEmptyResultIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	_, err := client.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestClientGetByIDServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})

	_, err := client.GetByID(context.Background(), "p1")
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

func TestClientConnectionRefusedIsUnavailable(t *testing.T) {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-refused"),
		testLogger(),
	)
	client := NewClient(cb, "http://127.0.0.1:1", "anon-key")

	_, err := client.GetByID(context.Background(), "p1")
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

func TestClientList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		json.NewEncoder(w).Encode([]domain.Product{
			{ID: "p1", Name: "Printer", Price: 9900},
			{ID: "p2", Name: "Copier", Price: 55000},
		})
	})

	got, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestClientListEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	got, err := client.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClientCreate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var got []domain.Product
		var sent domain.Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		sent.CreatedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
		got = append(got, sent)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(got)
	})

	p := domain.Product{ID: "p1", Name: "CCTV Camera", Price: 12500, Category: domain.CategorySurveillance}
	require.NoError(t, client.Create(context.Background(), &p))
	assert.False(t, p.CreatedAt.IsZero(), "server assigned created_at should be read back")
}

func TestClientUpdateMissingIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.Write([]byte("[]"))
	})

	p := domain.Product{ID: "missing", Name: "Ghost"}
	err := client.Update(context.Background(), &p)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestClientDelete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		json.NewEncoder(w).Encode([]domain.Product{{ID: "p1"}})
	})

	assert.NoError(t, client.Delete(context.Background(), "p1"))
}
