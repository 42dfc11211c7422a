// Package storefront is a Go client for the techstore REST surface. It
// covers the public catalog and order endpoints, the auth flow, and the
// admin console wrappers.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// SetToken installs the bearer token sent with subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Status, e.Fields)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

type Product struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	OldPrice    *float64 `json:"oldPrice,omitempty"`
	Rating      float64  `json:"rating"`
	Stock       uint     `json:"stock"`
	Image       string   `json:"image"`
	Tag         *string  `json:"tag,omitempty"`
	Description string   `json:"description"`
}

type OrderLine struct {
	ProductID uint `json:"productId"`
	Quantity  uint `json:"quantity"`
}

type Order struct {
	ID         uint        `json:"id"`
	UserID     *uint       `json:"userId,omitempty"`
	Products   []OrderLine `json:"products"`
	TotalPrice float64     `json:"totalPrice"`
	Status     string      `json:"status"`
	Address    string      `json:"address"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
}

type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type OrderRequest struct {
	Products   []OrderLine `json:"products"`
	TotalPrice float64     `json:"totalPrice"`
	Address    string      `json:"address"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
}

type SearchResult struct {
	Total    int64     `json:"total"`
	Products []Product `json:"products"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: "server error"}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and retains the access token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var res struct {
		User        User   `json:"user"`
		AccessToken string `json:"access_token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res.User, nil
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	var product Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/"+slug, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	var products []Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/categories/"+category, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	var res SearchResult
	path := "/api/search?q=" + queryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (*Order, error) {
	var order Order
	if err := c.doJSON(ctx, http.MethodPost, "/api/orders", in, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
