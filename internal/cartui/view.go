package cartui

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"finitefield.org/storefront-web/internal/cart"
)

var rowTemplate = template.Must(template.New("cart-row").Parse(`
<div class="cart-row" data-index="{{.Index}}" data-id="{{.ID}}">
  <div class="cart-thumb">
    {{- if .Img}}<img src="{{.Img}}" alt="{{.Name}}">{{else}}<div class="cart-noimg"></div>{{end -}}
  </div>
  <div class="cart-info">
    <div class="cart-name">{{.Name}}</div>
    {{- if .Brand}}<div class="cart-brand">{{.Brand}}</div>{{end}}
    {{- if .Price}}<div class="cart-price">{{.Price}}</div>{{end}}
    <div class="cart-qty">{{.QtyLabel}}: {{.Qty}}</div>
  </div>
  <div class="cart-actions">
    <button type="submit" class="remove-btn" name="item" value="{{.ID}}" data-index="{{.Index}}" aria-label="{{.RemoveLabel}}"><i class="fa fa-trash"></i></button>
  </div>
</div>`))

type rowData struct {
	Index       int
	ID          string
	Name        string
	Brand       string
	Price       string
	Img         string
	Qty         int
	QtyLabel    string
	RemoveLabel string
}

// CartView rebuilds the dropdown (#cart-items) and panel (#cartItems) lists and the badge.
type CartView struct {
	labels Labels
}

// NewCartView returns a view renderer using labels for row text.
func NewCartView(labels Labels) *CartView {
	return &CartView{labels: labels.withDefaults()}
}

// Render clears every cart list present in doc and writes one row per item, in cart order.
// Row indices are positional and valid only for this render.
func (v *CartView) Render(doc *goquery.Document, items cart.Cart) error {
	if doc == nil {
		return nil
	}
	lists := doc.Find(SelDropdown + ", " + SelPanelList)
	if lists.Length() == 0 {
		return nil
	}
	var buf bytes.Buffer
	for idx, it := range items {
		if err := rowTemplate.Execute(&buf, v.row(idx, it)); err != nil {
			return fmt.Errorf("render cart row %d: %w", idx, err)
		}
	}
	rows := buf.String()
	lists.Each(func(_ int, list *goquery.Selection) {
		list.Empty()
		if rows != "" {
			list.AppendHtml(rows)
		}
	})
	return nil
}

func (v *CartView) row(idx int, it cart.Item) rowData {
	name := it.Name
	if name == "" {
		name = v.labels.Item
	}
	qty := it.Qty
	if qty < 1 {
		qty = 1
	}
	return rowData{
		Index:       idx,
		ID:          ItemIdentity(it),
		Name:        name,
		Brand:       it.Brand,
		Price:       it.Price,
		Img:         it.Img,
		Qty:         qty,
		QtyLabel:    v.labels.Qty,
		RemoveLabel: v.labels.Remove,
	}
}

// UpdateBadge writes the total quantity into #cartCount.
func (v *CartView) UpdateBadge(doc *goquery.Document, total int) {
	if doc == nil {
		return
	}
	doc.Find(SelBadge).SetText(strconv.Itoa(total))
}
