package catalog

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
products:
  - id: a
    name: Alpha Roadster
    brand: Velo
    price: 120000
    category: Trending
    delivery: express
    deal: true
    description: "**fast** <script>alert(1)</script>"
  - id: b
    name: Beta
    brand: Apex
    price: 50000
    delivery: standard
  - id: c
    name: Gamma Roadster
    brand: Apex
    price: 300000
    delivery: express
  - id: d
    name: Delta
    price: 0
`

func mustParse(t *testing.T, raw string) *Catalog {
	t.Helper()
	c, err := Parse([]byte(raw))
	require.NoError(t, err)
	return c
}

func TestParseAssignsCategoriesRoundRobin(t *testing.T) {
	c := mustParse(t, sample)
	products := c.Products()
	require.Len(t, products, 4)
	require.Equal(t, "trending", products[0].Category)
	require.Equal(t, "popular", products[1].Category)
	require.Equal(t, "electric", products[2].Category)
	require.Equal(t, "upcoming", products[3].Category)

	require.Equal(t, []string{"Apex", "Velo"}, c.Brands())
	require.Equal(t, []string{"express", "standard"}, c.Deliveries())
}

func TestParseRendersSanitizedDescription(t *testing.T) {
	c := mustParse(t, sample)
	a, ok := c.Get("a")
	require.True(t, ok)
	html := string(a.DescriptionHTML)
	require.Contains(t, html, "<strong>fast</strong>")
	require.NotContains(t, html, "<script")

	b, _ := c.Get("b")
	require.Empty(t, b.DescriptionHTML)
}

func TestParseRejectsInvalidProducts(t *testing.T) {
	_, err := Parse([]byte("products:\n  - name: missing id\n"))
	require.Error(t, err)

	_, err = Parse([]byte("products:\n  - id: x\n    name: X\n    category: vintage\n"))
	require.Error(t, err)

	_, err = Parse([]byte("products:\n  - id: x\n    name: X\n  - id: x\n    name: Y\n"))
	require.ErrorIs(t, err, ErrDuplicateProduct)

	_, err = Parse([]byte("products: [\n"))
	require.Error(t, err)
}

func TestProductLabels(t *testing.T) {
	require.Equal(t, "₹1,20,000", Product{Price: 120000}.PriceLabel())
	require.Empty(t, Product{}.PriceLabel())
	require.Equal(t, "yes", Product{Deal: true}.DealFlag())
	require.Equal(t, "no", Product{}.DealFlag())
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	c := mustParse(t, strings.ReplaceAll(sample, "category: Trending", "category: trending"))
	all := func(cat string) Query {
		return Query{Category: cat, MaxPrice: DefaultMaxPrice}
	}

	require.Equal(t, []string{"a"}, ids(c.Filter(all("TRENDING"))))
	require.Empty(t, c.Filter(all("nope")))

	q := all("electric")
	q.Brands = []string{"Velo"}
	require.Empty(t, c.Filter(q))
	q.Brands = []string{"Velo", "Apex"}
	require.Equal(t, []string{"c"}, ids(c.Filter(q)))

	q = all("trending")
	q.Deals = []string{"today"}
	require.Equal(t, []string{"a"}, ids(c.Filter(q)))
	q = all("popular")
	q.Deals = []string{"today"}
	require.Empty(t, c.Filter(q))
	q.Deals = []string{"today", "all"}
	require.Equal(t, []string{"b"}, ids(c.Filter(q)))

	q = all("electric")
	q.MaxPrice = 200000
	require.Empty(t, c.Filter(q))
	q = all("popular")
	q.MinPrice = 60000
	require.Empty(t, c.Filter(q))

	q = all("trending")
	q.Name = "alpha"
	require.Equal(t, []string{"a"}, ids(c.Filter(q)))
	q.Delivery = []string{"standard"}
	require.Empty(t, c.Filter(q))

	require.Equal(t, []string{"a", "c"}, ids(c.Filter(Query{Search: "ROADSTER", Category: "popular"})))
}

func TestParseQueryDefaults(t *testing.T) {
	q := ParseQuery(url.Values{})
	require.Equal(t, "trending", q.Category)
	require.Equal(t, int64(0), q.MinPrice)
	require.Equal(t, DefaultMaxPrice, q.MaxPrice)
	require.Empty(t, q.Values())

	v := url.Values{
		"cat":      {"Electric"},
		"brand":    {"Velo", " "},
		"delivery": {"express"},
		"deal":     {"today"},
		"min":      {"1000"},
		"max":      {"abc"},
		"page":     {"2"},
		"q":        {" glide "},
	}
	q = ParseQuery(v)
	require.Equal(t, "electric", q.Category)
	require.Equal(t, []string{"Velo"}, q.Brands)
	require.Equal(t, int64(1000), q.MinPrice)
	require.Equal(t, DefaultMaxPrice, q.MaxPrice)
	require.Equal(t, 2, q.Page)
	require.Equal(t, "glide", q.Search)

	back := ParseQuery(q.Values())
	require.Equal(t, q, back)
}

func TestParseQueryClampsHugePrices(t *testing.T) {
	c, err := Load("../../catalog/products.yaml")
	require.NoError(t, err)
	all := c.Filter(Query{Category: "trending", MaxPrice: DefaultMaxPrice})

	for _, raw := range []string{"1e30", "Inf", "+Infinity", "NaN", "-Inf"} {
		q := ParseQuery(url.Values{"max": {raw}})
		require.Equal(t, DefaultMaxPrice, q.MaxPrice, raw)
		require.Equal(t, all, c.Filter(q), raw)
	}
	require.Equal(t, int64(0), ParseQuery(url.Values{"min": {"NaN"}}).MinPrice)
	require.Equal(t, DefaultMaxPrice, ParseQuery(url.Values{"min": {"1e30"}}).MinPrice)
}

func TestPaginate(t *testing.T) {
	w := Paginate(10, 4, 0)
	require.Equal(t, Window{Index: 0, Pages: 3, Start: 0, End: 4, HasPrev: false, HasNext: true}, w)

	w = Paginate(10, 4, 9)
	require.Equal(t, Window{Index: 2, Pages: 3, Start: 8, End: 10, HasPrev: true, HasNext: false}, w)

	w = Paginate(10, 0, -3)
	require.Equal(t, 0, w.Index)
	require.Equal(t, 10, w.Pages)

	require.Equal(t, Window{}, Paginate(0, 4, 1))
}

func TestLoadBundledCatalog(t *testing.T) {
	c, err := Load("../../catalog/products.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, c.Products())
	for _, cat := range Categories {
		require.NotEmpty(t, c.Filter(Query{Category: cat, MaxPrice: DefaultMaxPrice}), cat)
	}
}
