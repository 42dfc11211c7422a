package storefront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

func queryEscape(s string) string { return url.QueryEscape(s) }

// ProductForm is the multipart payload for product create/update. Nil
// pointers are left out of the form, so updates stay partial. Image is
// optional on update and required by the server on create.
type ProductForm struct {
	Name        *string
	Category    *string
	Price       *float64
	OldPrice    *float64
	Rating      *float64
	Stock       *uint
	Tag         *string
	Description *string

	ImageName string
	Image     io.Reader
}

func (f *ProductForm) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	writeField := func(key string, v *string) error {
		if v == nil {
			return nil
		}
		return w.WriteField(key, *v)
	}
	writeFloat := func(key string, v *float64) error {
		if v == nil {
			return nil
		}
		return w.WriteField(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}

	if err := writeField("name", f.Name); err != nil {
		return nil, "", err
	}
	if err := writeField("category", f.Category); err != nil {
		return nil, "", err
	}
	if err := writeFloat("price", f.Price); err != nil {
		return nil, "", err
	}
	if err := writeFloat("oldPrice", f.OldPrice); err != nil {
		return nil, "", err
	}
	if err := writeFloat("rating", f.Rating); err != nil {
		return nil, "", err
	}
	if f.Stock != nil {
		if err := w.WriteField("stock", strconv.FormatUint(uint64(*f.Stock), 10)); err != nil {
			return nil, "", err
		}
	}
	if err := writeField("tag", f.Tag); err != nil {
		return nil, "", err
	}
	if err := writeField("description", f.Description); err != nil {
		return nil, "", err
	}

	if f.Image != nil {
		part, err := w.CreateFormFile("image", f.ImageName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Image); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) doMultipart(ctx context.Context, method, path string, form *ProductForm, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}

func (c *Client) CreateProduct(ctx context.Context, form ProductForm) (*Product, error) {
	var product Product
	if err := c.doMultipart(ctx, http.MethodPost, "/api/products", &form, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint, form ProductForm) (*Product, error) {
	var product Product
	path := fmt.Sprintf("/api/products/%d", id)
	if err := c.doMultipart(ctx, http.MethodPut, path, &form, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil)
}

func (c *Client) AllOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders/all", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) SetOrderStatus(ctx context.Context, id uint, status string) (*Order, error) {
	var order Order
	path := fmt.Sprintf("/api/orders/%d", id)
	if err := c.doJSON(ctx, http.MethodPut, path, map[string]string{"status": status}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) RegisterAdmin(ctx context.Context, name, email, password string) (*User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/admin/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ToggleRole(ctx context.Context, userID uint, role string) (*User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodPut, "/api/auth/toggle-role", map[string]any{
		"userId": userID,
		"role":   role,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
