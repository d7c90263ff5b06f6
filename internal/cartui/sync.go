package cartui

import (
	"github.com/PuerkitoBio/goquery"
)

// Reconcile projects the persisted cart onto a freshly rendered page: both cart
// lists, the badge, every card's widget and the panel state. Cards match cart
// lines by identity only.
func (h *Handlers) Reconcile(page *Page) error {
	if page == nil || page.Doc == nil || page.Cart == nil {
		return nil
	}
	items := page.Cart.Items()
	err := h.View.Render(page.Doc, items)
	h.View.UpdateBadge(page.Doc, items.TotalQuantity())

	page.Doc.Find(SelCard).Each(func(_ int, card *goquery.Selection) {
		id := Resolve(card)
		if id == "" {
			return
		}
		if idx := items.IndexOf(id); idx >= 0 {
			card.SetAttr(attrID, id)
			h.Controls.Render(card, items[idx].Qty)
			return
		}
		h.Controls.Restore(card)
	})
	applyPanel(page)
	return err
}
