package cartui

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/format"
)

var identityAttrs = []string{"data-id", "data-name", "name"}

// Resolve derives the product identity of a card: data-id, data-name, the name
// attribute, then the visible product name. It returns "" when none is present.
func Resolve(card *goquery.Selection) string {
	if card == nil || card.Length() == 0 {
		return ""
	}
	card = card.First()
	for _, attr := range identityAttrs {
		if v := strings.TrimSpace(card.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return strings.TrimSpace(card.Find(SelCardName).First().Text())
}

// Bind resolves the card identity and caches it as data-id on the card.
func Bind(card *goquery.Selection) string {
	id := Resolve(card)
	if id != "" {
		card.First().SetAttr(attrID, id)
	}
	return id
}

// ItemIdentity is the identity of a stored cart line.
func ItemIdentity(it cart.Item) string {
	return it.ID
}

// FindCard returns the first card in doc whose identity is id.
func FindCard(doc *goquery.Document, id string) (*goquery.Selection, bool) {
	if doc == nil || id == "" {
		return nil, false
	}
	var found *goquery.Selection
	doc.Find(SelCard).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if Resolve(card) == id {
			found = card
			return false
		}
		return true
	})
	return found, found != nil
}

// CardMetadata reads the display fields used when a card's product is first added.
func CardMetadata(card *goquery.Selection) cart.Metadata {
	if card == nil || card.Length() == 0 {
		return cart.Metadata{}
	}
	card = card.First()
	name := strings.TrimSpace(card.AttrOr("data-name", ""))
	if name == "" {
		name = strings.TrimSpace(card.Find(SelCardName).First().Text())
	}
	if name == "" {
		name = Resolve(card)
	}

	var price string
	if raw, ok := card.Attr("data-price"); ok && raw != "" {
		price = format.PriceLabel(raw)
	} else {
		price = strings.TrimSpace(card.Find(SelCardPrice).First().Text())
	}

	return cart.Metadata{
		Name:  name,
		Price: price,
		Img:   strings.TrimSpace(card.Find("img").First().AttrOr("src", "")),
		Brand: strings.TrimSpace(card.AttrOr("data-brand", "")),
	}
}
