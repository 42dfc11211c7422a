package storefront

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"techstore-backend/pkg/cart"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidContact = errors.New("invalid contact details")
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Contact is the user-entered shipping and contact block for checkout.
type Contact struct {
	Address string
	Email   string
	Phone   string
}

func (ct Contact) validate() error {
	switch {
	case ct.Address == "":
		return fmt.Errorf("%w: address is required", ErrInvalidContact)
	case ct.Email == "" || !emailShape.MatchString(ct.Email):
		return fmt.Errorf("%w: email must be a valid address", ErrInvalidContact)
	case ct.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrInvalidContact)
	}
	return nil
}

// Checkout submits the current cart as an order. Contact details are checked
// client-side before any request goes out. On success the cart is cleared
// and the confirmed order (carrying its id) is returned; on failure the cart
// is left intact. There is no retry.
func (c *Client) Checkout(ctx context.Context, ct *cart.Cart, contact Contact) (*Order, error) {
	if ct.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := contact.validate(); err != nil {
		return nil, err
	}

	lines := make([]OrderLine, 0, len(ct.Items))
	for _, it := range ct.Items {
		lines = append(lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := c.CreateOrder(ctx, OrderRequest{
		Products:   lines,
		TotalPrice: ct.TotalPrice,
		Address:    contact.Address,
		Email:      contact.Email,
		Phone:      contact.Phone,
	})
	if err != nil {
		return nil, err
	}

	if err := ct.Clear(); err != nil {
		return order, fmt.Errorf("order %d placed but cart not cleared: %w", order.ID, err)
	}
	return order, nil
}
