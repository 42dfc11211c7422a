package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techstore-backend/pkg/cart"
)

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New(nil)
	require.NoError(t, c.AddItem(cart.Item{ProductID: 1, Name: "Pixel 9", Price: 999}, 2))
	require.NoError(t, c.AddItem(cart.Item{ProductID: 2, Name: "Galaxy Watch 7", Price: 299}, 1))
	return c
}

func contact() Contact {
	return Contact{Address: "1 Main St", Email: "buyer@example.com", Phone: "+1 555 0100"}
}

func TestCheckout(t *testing.T) {
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Order{ID: 42, Status: "pending", TotalPrice: got.TotalPrice})
	}))
	defer srv.Close()

	ct := filledCart(t)
	wantTotal := ct.TotalPrice

	order, err := New(srv.URL).Checkout(context.Background(), ct, contact())
	require.NoError(t, err)

	assert.Equal(t, uint(42), order.ID)
	assert.Equal(t, "pending", order.Status)
	require.Len(t, got.Products, 2)
	assert.Equal(t, uint(2), got.Products[0].Quantity)
	assert.InDelta(t, wantTotal, got.TotalPrice, 1e-9)
	assert.True(t, ct.IsEmpty(), "a confirmed order empties the cart")
}

func TestCheckout_FailureKeepsCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "validation failed"})
	}))
	defer srv.Close()

	ct := filledCart(t)
	_, err := New(srv.URL).Checkout(context.Background(), ct, contact())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.False(t, ct.IsEmpty(), "a rejected order leaves the cart intact")
	assert.Len(t, ct.Items, 2)
}

func TestCheckout_EmptyCart(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Checkout(context.Background(), cart.New(nil), contact())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, calls.Load(), "no request goes out for an empty cart")
}

func TestCheckout_InvalidContact(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := New(srv.URL)
	tests := []struct {
		name string
		ct   Contact
	}{
		{"missing address", Contact{Email: "a@b.co", Phone: "123"}},
		{"bad email", Contact{Address: "1 Main St", Email: "not-an-email", Phone: "123"}},
		{"missing phone", Contact{Address: "1 Main St", Email: "a@b.co"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Checkout(context.Background(), filledCart(t), tt.ct)
			assert.ErrorIs(t, err, ErrInvalidContact)
		})
	}
	assert.Zero(t, calls.Load(), "contact validation happens before any request")
}
