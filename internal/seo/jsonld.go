package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebSite returns a minimal WebSite schema with optional SearchAction.
func WebSite(name, url, searchActionURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if searchActionURL != "" {
		m["potentialAction"] = map[string]any{
			"@type":       "SearchAction",
			"target":      searchActionURL + "{search_term_string}",
			"query-input": "required name=search_term_string",
		}
	}
	return m
}

// Product returns a product schema payload. A price of zero omits the offer.
func Product(name, brand, imageURL, sku string, price int64, currency string) map[string]any {
	m := map[string]any{
		"@type": "Product",
		"name":  name,
	}
	if brand != "" {
		m["brand"] = map[string]any{"@type": "Brand", "name": brand}
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if sku != "" {
		m["sku"] = sku
	}
	if price > 0 {
		m["offers"] = map[string]any{
			"@type":         "Offer",
			"price":         price,
			"priceCurrency": currency,
			"availability":  "https://schema.org/InStock",
		}
	}
	return m
}

// ItemList wraps entries as a schema.org ItemList in display order.
func ItemList(items []map[string]any) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"item":     it,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"itemListElement": el,
	}
}
