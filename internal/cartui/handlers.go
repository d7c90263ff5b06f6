package cartui

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/metrics"
)

// Handlers apply one cart mutation and re-render the affected surfaces.
// Each returns whether anything changed; identity misses are silent no-ops.
type Handlers struct {
	Controls *QuantityControls
	View     *CartView
	Metrics  *metrics.CartMetrics
	Logger   *zap.Logger
}

// NewHandlers wires handlers with renderers built from labels.
func NewHandlers(labels Labels, m *metrics.CartMetrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Controls: NewQuantityControls(labels),
		View:     NewCartView(labels),
		Metrics:  m,
		Logger:   logger,
	}
}

// Add puts one unit of the card's product in the cart and shows its widget.
func (h *Handlers) Add(ctx context.Context, page *Page, card *goquery.Selection) (bool, error) {
	id := Bind(card)
	if id == "" {
		return false, nil
	}
	item, err := page.Cart.UpsertIncrement(ctx, id, CardMetadata(card))
	if err != nil {
		h.Metrics.IncStoreFailure("save")
		return false, err
	}
	h.Controls.Render(card, item.Qty)
	return true, h.refresh(page)
}

// Increment adds one unit; a product not yet in the cart is added with quantity 1.
func (h *Handlers) Increment(ctx context.Context, page *Page, card *goquery.Selection) (bool, error) {
	id := Bind(card)
	if id == "" {
		return false, nil
	}
	item, err := page.Cart.UpsertIncrement(ctx, id, CardMetadata(card))
	if err != nil {
		h.Metrics.IncStoreFailure("save")
		return false, err
	}
	if !h.Controls.SetValue(card, item.Qty) {
		h.Controls.Render(card, item.Qty)
	}
	return true, h.refresh(page)
}

// Decrement removes one unit. At zero the line is removed and the card reverts to its add CTA.
func (h *Handlers) Decrement(ctx context.Context, page *Page, card *goquery.Selection) (bool, error) {
	id := Resolve(card)
	if id == "" {
		return false, nil
	}
	current, ok := page.Cart.Get(id)
	if !ok {
		return false, nil
	}
	item, present, err := page.Cart.SetQty(ctx, id, current.Qty-1)
	if err != nil {
		h.Metrics.IncStoreFailure("save")
		return false, err
	}
	if !present {
		h.Controls.Restore(card)
	} else if !h.Controls.SetValue(card, item.Qty) {
		h.Controls.Render(card, item.Qty)
	}
	return true, h.refresh(page)
}

// RemoveCard drops the card's product regardless of quantity and restores the card.
func (h *Handlers) RemoveCard(ctx context.Context, page *Page, card *goquery.Selection) (bool, error) {
	id := Resolve(card)
	if id == "" {
		return false, nil
	}
	_, removed, err := page.Cart.RemoveByID(ctx, id)
	if err != nil {
		h.Metrics.IncStoreFailure("save")
		return false, err
	}
	h.Controls.Restore(card)
	if !removed {
		return false, nil
	}
	return true, h.refresh(page)
}

// RemoveRow removes the line a cart-list row points at. The positional index is
// resolved to the line's identity before mutating, and the originating card, if
// it is on the page, reverts to its add CTA.
func (h *Handlers) RemoveRow(ctx context.Context, page *Page, control *goquery.Selection) (bool, error) {
	index, err := strconv.Atoi(strings.TrimSpace(control.AttrOr(attrIndex, "")))
	if err != nil || index < 0 {
		return false, nil
	}
	item, ok := page.Cart.At(index)
	if !ok {
		return false, nil
	}
	id := ItemIdentity(item)
	if _, removed, err := page.Cart.RemoveByID(ctx, id); err != nil {
		h.Metrics.IncStoreFailure("save")
		return false, err
	} else if !removed {
		return false, nil
	}
	if card, ok := FindCard(page.Doc, id); ok {
		h.Controls.Restore(card)
	}
	return true, h.refresh(page)
}

// TogglePanel flips the open state of the cart panel.
func (h *Handlers) TogglePanel(page *Page) bool {
	page.PanelOpen = !page.PanelOpen
	applyPanel(page)
	return true
}

// ClosePanel closes the cart panel.
func (h *Handlers) ClosePanel(page *Page) bool {
	changed := page.PanelOpen
	page.PanelOpen = false
	applyPanel(page)
	return changed
}

func (h *Handlers) refresh(page *Page) error {
	items := page.Cart.Items()
	total := items.TotalQuantity()
	h.View.UpdateBadge(page.Doc, total)
	h.Metrics.ObserveQuantity(total)
	return h.View.Render(page.Doc, items)
}

func applyPanel(page *Page) {
	if page.Doc == nil {
		return
	}
	panel := page.Doc.Find(SelPanel)
	if page.PanelOpen {
		panel.AddClass(panelOpenCls)
	} else {
		panel.RemoveClass(panelOpenCls)
	}
}
