package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMaxPrice is the upper price bound when none is given.
const DefaultMaxPrice int64 = 99_999_999

// Query selects the visible products. Search, when set, matches names across
// every category and ignores the other filters.
type Query struct {
	Search   string
	Category string
	Name     string
	Brands   []string
	Delivery []string
	Deals    []string
	MinPrice int64
	MaxPrice int64
	Page     int
}

// ParseQuery reads a Query from storefront URL parameters.
func ParseQuery(v url.Values) Query {
	q := Query{
		Search:   strings.TrimSpace(v.Get("q")),
		Category: strings.ToLower(strings.TrimSpace(v.Get("cat"))),
		Name:     strings.TrimSpace(v.Get("name")),
		Brands:   nonEmpty(v["brand"]),
		Delivery: nonEmpty(v["delivery"]),
		Deals:    nonEmpty(v["deal"]),
		MinPrice: parsePrice(v.Get("min"), 0),
		MaxPrice: parsePrice(v.Get("max"), DefaultMaxPrice),
	}
	if q.Category == "" {
		q.Category = Categories[0]
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	return q
}

// Values encodes the query back into URL parameters, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Category != "" && q.Category != Categories[0] {
		v.Set("cat", q.Category)
	}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	for _, b := range q.Brands {
		v.Add("brand", b)
	}
	for _, d := range q.Delivery {
		v.Add("delivery", d)
	}
	for _, d := range q.Deals {
		v.Add("deal", d)
	}
	if q.MinPrice > 0 {
		v.Set("min", strconv.FormatInt(q.MinPrice, 10))
	}
	if q.MaxPrice != DefaultMaxPrice {
		v.Set("max", strconv.FormatInt(q.MaxPrice, 10))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Has reports whether list contains value; used by templates for checkbox state.
func Has(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// Filter returns the products matching q in catalog order.
func (c *Catalog) Filter(q Query) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if q.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (q Query) matches(p Product) bool {
	if q.Search != "" {
		return strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search))
	}
	if !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Name)) {
		return false
	}
	if len(q.Brands) > 0 && !Has(q.Brands, p.Brand) {
		return false
	}
	if len(q.Delivery) > 0 && !Has(q.Delivery, p.Delivery) {
		return false
	}
	if len(q.Deals) > 0 && !Has(q.Deals, "all") && Has(q.Deals, "today") && !p.Deal {
		return false
	}
	return p.Price >= q.MinPrice && p.Price <= q.MaxPrice
}

func parsePrice(raw string, fallback int64) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n < 0 || math.IsNaN(n) {
		return fallback
	}
	if n > float64(DefaultMaxPrice) {
		return DefaultMaxPrice
	}
	return int64(n)
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
