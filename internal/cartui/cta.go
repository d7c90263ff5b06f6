package cartui

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeCTAs turns every .add-cart element inside a card into a submit button
// of class "bike-btn add-cart" carrying the cart icon and label.
func NormalizeCTAs(doc *goquery.Document, label string) {
	if doc == nil {
		return
	}
	if label == "" {
		label = DefaultLabels().Add
	}
	inner := `<i class="fa fa-shopping-cart" aria-hidden="true"></i>&nbsp; ` + html.EscapeString(label)

	doc.Find(SelCard + " " + SelAddCart).Each(func(_ int, n *goquery.Selection) {
		if goquery.NodeName(n) == "button" {
			n.SetAttr("type", "submit")
			n.AddClass("bike-btn")
			n.SetAttr("name", controlField)
			n.SetAttr("value", "add-cart")
			n.SetHtml(inner)
			return
		}
		classes := mergeClasses(n.AttrOr("class", ""), "bike-btn", "add-cart")
		btn := `<button type="submit" class="` + html.EscapeString(classes) + `" name="` + controlField + `" value="add-cart">` + inner + `</button>`
		n.ReplaceWithHtml(btn)
	})
}

func mergeClasses(existing string, add ...string) string {
	seen := map[string]bool{}
	var out []string
	for _, c := range append(strings.Fields(existing), add...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
