package cart

import (
	"errors"
	"strings"
)

// ErrInvalidIdentity is returned when a mutation is attempted without a product identity.
var ErrInvalidIdentity = errors.New("cart: invalid identity")

// Item is a single line of the cart. Exactly one Item exists per product identity.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Img   string `json:"img"`
	Brand string `json:"brand"`
	Qty   int    `json:"qty"`
}

// Metadata seeds the display fields of a newly inserted Item.
type Metadata struct {
	Name  string
	Price string
	Img   string
	Brand string
}

// Cart is the ordered sequence of line items, in insertion order.
type Cart []Item

// IndexOf returns the position of the item with the given id, or -1.
func (c Cart) IndexOf(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// TotalQuantity sums qty across all items.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, it := range c {
		if it.Qty > 0 {
			total += it.Qty
		}
	}
	return total
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

func newItem(id string, meta Metadata) Item {
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = id
	}
	return Item{
		ID:    id,
		Name:  name,
		Price: strings.TrimSpace(meta.Price),
		Img:   strings.TrimSpace(meta.Img),
		Brand: strings.TrimSpace(meta.Brand),
		Qty:   1,
	}
}

// normalize enforces the stored invariants on data read back from a slot:
// items need an id, qty is at least one and ids are unique (duplicates merge into the first).
func normalize(in Cart) Cart {
	out := make(Cart, 0, len(in))
	for _, it := range in {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			continue
		}
		if it.Qty < 1 {
			it.Qty = 1
		}
		if idx := out.IndexOf(it.ID); idx >= 0 {
			out[idx].Qty += it.Qty
			continue
		}
		out = append(out, it)
	}
	return out
}
