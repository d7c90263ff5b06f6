package cartui

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// QuantityControls renders the per-card widget: trash, decrement, value, increment.
// It works from the quantity it is given and never consults the cart.
type QuantityControls struct {
	labels Labels
}

// NewQuantityControls returns a renderer using labels for accessible names.
func NewQuantityControls(labels Labels) *QuantityControls {
	return &QuantityControls{labels: labels.withDefaults()}
}

// Render replaces any widget on card with one showing max(1, qty) and hides the add CTA.
func (q *QuantityControls) Render(card *goquery.Selection, qty int) {
	if card == nil || card.Length() == 0 {
		return
	}
	card = card.First()
	card.Find(SelControls).Remove()

	widget := element(atom.Div, "class", "qty-controls")
	trash := q.button("qty-remove", q.labels.Remove)
	trash.AppendChild(element(atom.I, "class", "fa fa-trash", "aria-hidden", "true"))
	widget.AppendChild(trash)

	dec := q.button("qty-decrement", q.labels.Decrement)
	dec.AppendChild(text("−"))
	widget.AppendChild(dec)

	value := element(atom.Span, "class", "qty-value")
	value.AppendChild(text(strconv.Itoa(max(1, qty))))
	widget.AppendChild(value)

	inc := q.button("qty-increment", q.labels.Increment)
	inc.AppendChild(text("+"))
	widget.AppendChild(inc)

	card.Find(SelAddCTA).Each(func(_ int, s *goquery.Selection) {
		setDisplay(s, "none")
	})

	body := card.Find(SelCardBody).First()
	if body.Length() == 0 {
		card.AppendNodes(element(atom.Div, "class", "card-body"))
		body = card.ChildrenFiltered(SelCardBody).Last()
	}
	body.AppendNodes(widget)
}

// Restore removes the widget and shows the add CTA again.
func (q *QuantityControls) Restore(card *goquery.Selection) {
	if card == nil || card.Length() == 0 {
		return
	}
	card = card.First()
	card.Find(SelControls).Remove()
	card.Find(SelAddCTA).Each(func(_ int, s *goquery.Selection) {
		setDisplay(s, "")
	})
}

// SetValue updates the displayed quantity in place. It reports false when the card has no widget.
func (q *QuantityControls) SetValue(card *goquery.Selection, qty int) bool {
	if card == nil || card.Length() == 0 {
		return false
	}
	value := card.First().Find(SelControls + " " + SelQtyValue).First()
	if value.Length() == 0 {
		return false
	}
	value.SetText(strconv.Itoa(max(1, qty)))
	return true
}

// Value returns the quantity shown by the card widget, or 0 without one.
func (q *QuantityControls) Value(card *goquery.Selection) int {
	if card == nil || card.Length() == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(card.First().Find(SelControls + " " + SelQtyValue).First().Text()))
	if err != nil {
		return 0
	}
	return n
}

func (q *QuantityControls) button(hook, label string) *html.Node {
	return element(atom.Button,
		"type", "submit",
		"class", hook,
		"name", controlField,
		"value", hook,
		"aria-label", label,
	)
}

func element(tag atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// setDisplay rewrites the display declaration of an inline style; "" drops it.
func setDisplay(s *goquery.Selection, value string) {
	var decls []string
	for _, d := range strings.Split(s.AttrOr("style", ""), ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		prop, _, _ := strings.Cut(d, ":")
		if strings.EqualFold(strings.TrimSpace(prop), "display") {
			continue
		}
		decls = append(decls, d)
	}
	if value != "" {
		decls = append(decls, "display: "+value)
	}
	if len(decls) == 0 {
		s.RemoveAttr("style")
		return
	}
	s.SetAttr("style", strings.Join(decls, "; "))
}
