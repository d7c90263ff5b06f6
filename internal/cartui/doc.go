// Package cartui keeps a storefront HTML document in step with a visitor's cart.
//
// The document is a goquery tree rendered by the storefront templates. Product cards
// (".bike-gallery-card") carry the identity and display metadata of a product; the
// quantity widget, the cart lists and the badge are projections of the cart and are
// rebuilt from the repository after every mutation, never read back as state.
package cartui

import (
	"github.com/PuerkitoBio/goquery"

	"finitefield.org/storefront-web/internal/cart"
)

// Class and id hooks shared by the templates, the renderers and the dispatcher.
const (
	SelCard       = ".bike-gallery-card"
	SelCardBody   = ".card-body"
	SelCardName   = ".bike-name"
	SelCardPrice  = ".card-price"
	SelAddCart    = ".add-cart"
	SelAddCTA     = ".bike-btn.add-cart"
	SelControls   = ".qty-controls"
	SelQtyRemove  = ".qty-remove"
	SelQtyDec     = ".qty-decrement"
	SelQtyValue   = ".qty-value"
	SelQtyInc     = ".qty-increment"
	SelRowRemove  = ".remove-btn"
	SelRow        = ".cart-row"
	SelDropdown   = "#cart-items"
	SelPanelList  = "#cartItems"
	SelBadge      = "#cartCount"
	SelPanel      = "#cartPanel"
	SelCartIcon   = ".cart-icon"
	SelCloseCart  = "#closeCart"
	panelOpenCls  = "active"
	attrIndex     = "data-index"
	attrID        = "data-id"
	controlField  = "control"
)

// Page is one rendered storefront document together with the cart it projects.
type Page struct {
	Doc       *goquery.Document
	Cart      *cart.Repository
	PanelOpen bool
}

// Labels are the localized strings the renderers write into the document.
type Labels struct {
	Add       string
	Remove    string
	Increment string
	Decrement string
	Qty       string
	Item      string
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		Add:       "Add to cart",
		Remove:    "Remove",
		Increment: "Increase quantity",
		Decrement: "Decrease quantity",
		Qty:       "Qty",
		Item:      "Item",
	}
}

func (l Labels) withDefaults() Labels {
	d := DefaultLabels()
	if l.Add == "" {
		l.Add = d.Add
	}
	if l.Remove == "" {
		l.Remove = d.Remove
	}
	if l.Increment == "" {
		l.Increment = d.Increment
	}
	if l.Decrement == "" {
		l.Decrement = d.Decrement
	}
	if l.Qty == "" {
		l.Qty = d.Qty
	}
	if l.Item == "" {
		l.Item = d.Item
	}
	return l
}
