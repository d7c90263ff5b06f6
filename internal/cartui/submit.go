package cartui

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Control names a clickable hook as posted in the "control" form field.
type Control string

const (
	ControlAdd       Control = "add-cart"
	ControlIncrement Control = "qty-increment"
	ControlDecrement Control = "qty-decrement"
	ControlQtyRemove Control = "qty-remove"
	ControlRowRemove Control = "remove-btn"
	ControlCartIcon  Control = "cart-icon"
	ControlCloseCart Control = "closeCart"
)

// ParseControl accepts only the known control names.
func ParseControl(raw string) (Control, bool) {
	switch c := Control(strings.TrimSpace(raw)); c {
	case ControlAdd, ControlIncrement, ControlDecrement, ControlQtyRemove,
		ControlRowRemove, ControlCartIcon, ControlCloseCart:
		return c, true
	}
	return "", false
}

func (c Control) selector() string {
	if c == ControlCloseCart {
		return SelCloseCart
	}
	return "." + string(c)
}

func (c Control) cardAction() Action {
	switch c {
	case ControlAdd:
		return ActionAdd
	case ControlIncrement:
		return ActionIncrement
	case ControlDecrement:
		return ActionDecrement
	case ControlQtyRemove:
		return ActionRemoveCard
	}
	return ActionNone
}

// Click is a posted click: the control plus the card or row it came from.
type Click struct {
	Control Control
	Card    string
	Item    string
	Index   string
}

// Locate finds the element a posted click refers to in a reconciled page.
// It returns nil when the element is not on the page.
func Locate(doc *goquery.Document, click Click) *goquery.Selection {
	if doc == nil {
		return nil
	}
	switch click.Control {
	case ControlCartIcon, ControlCloseCart:
		if s := doc.Find(click.Control.selector()).First(); s.Length() > 0 {
			return s
		}
		return nil
	case ControlRowRemove:
		return locateRow(doc, click)
	}
	card, ok := FindCard(doc, strings.TrimSpace(click.Card))
	if !ok {
		return nil
	}
	if s := card.Find(click.Control.selector()).First(); s.Length() > 0 {
		return s
	}
	return nil
}

func locateRow(doc *goquery.Document, click Click) *goquery.Selection {
	buttons := doc.Find(SelRowRemove + "[" + attrIndex + "]")
	var found *goquery.Selection
	if id := strings.TrimSpace(click.Item); id != "" {
		buttons.EachWithBreak(func(_ int, b *goquery.Selection) bool {
			if b.Closest(SelRow).AttrOr(attrID, "") == id {
				found = b
				return false
			}
			return true
		})
		return found
	}
	if _, err := strconv.Atoi(strings.TrimSpace(click.Index)); err != nil {
		return nil
	}
	buttons.EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if b.AttrOr(attrIndex, "") == strings.TrimSpace(click.Index) {
			found = b
			return false
		}
		return true
	})
	return found
}

// Submit handles a posted click. When the control is no longer on the page, as
// when the post came from a stale copy, card controls fall back to acting on the
// card by control name, so an increment of a product that left the cart adds it.
func (d *Dispatcher) Submit(ctx context.Context, page *Page, click Click) Action {
	if page == nil {
		return ActionNone
	}
	if target := Locate(page.Doc, click); target != nil {
		return d.Click(ctx, page, target)
	}
	action := click.Control.cardAction()
	if action == ActionNone {
		return ActionNone
	}
	card, ok := FindCard(page.Doc, strings.TrimSpace(click.Card))
	if !ok {
		return ActionNone
	}
	d.Dispatch(ctx, page, action, card)
	return action
}
