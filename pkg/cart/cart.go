// Package cart holds the client-side shopping cart: an ephemeral line-item
// list with derived totals, snapshotted to a local store after every
// mutation so it survives a restart. The cart is never reconciled against
// live stock until checkout submits it.
package cart

// Item is one cart line plus the product snapshot taken when it was added.
type Item struct {
	ProductID uint    `json:"productId"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  uint    `json:"quantity"`
}

type Cart struct {
	store Store

	Items         []Item  `json:"items"`
	TotalQuantity uint    `json:"totalQuantity"`
	TotalPrice    float64 `json:"totalPrice"`
}

func New(store Store) *Cart {
	return &Cart{store: store}
}

// Load restores the last persisted snapshot. A missing snapshot yields an
// empty cart, not an error.
func Load(store Store) (*Cart, error) {
	c := New(store)
	if store == nil {
		return c, nil
	}
	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		c.Items = snap.Items
		c.recalculate()
	}
	return c, nil
}

// AddItem merges into an existing line by product id, summing quantities.
// A quantity below 1 counts as 1.
func (c *Cart) AddItem(p Item, quantity uint) error {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == p.ProductID {
			c.Items[i].Quantity += quantity
			return c.commit()
		}
	}
	p.Quantity = quantity
	c.Items = append(c.Items, p)
	return c.commit()
}

func (c *Cart) RemoveItem(productID uint) error {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return c.commit()
}

// SetQuantity overwrites the line's quantity. No lower bound is enforced
// here; callers decide what zero means.
func (c *Cart) SetQuantity(productID uint, n uint) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = n
			break
		}
	}
	return c.commit()
}

func (c *Cart) Clear() error {
	c.Items = nil
	return c.commit()
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) recalculate() {
	var qty uint
	var price float64
	for _, it := range c.Items {
		qty += it.Quantity
		price += it.Price * float64(it.Quantity)
	}
	c.TotalQuantity = qty
	c.TotalPrice = price
}

func (c *Cart) commit() error {
	c.recalculate()
	if c.store == nil {
		return nil
	}
	return c.store.Save(Snapshot{
		Items:         c.Items,
		TotalQuantity: c.TotalQuantity,
		TotalPrice:    c.TotalPrice,
	})
}
