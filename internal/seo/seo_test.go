package seo

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlternatesSetLanguageParam(t *testing.T) {
	u, err := url.Parse("https://shop.test/?cat=electric&hl=en")
	require.NoError(t, err)

	alts := Alternates(*u, []string{"hi", "en"})
	require.Equal(t, []Alternate{
		{Href: "https://shop.test/?cat=electric&hl=en", Hreflang: "en"},
		{Href: "https://shop.test/?cat=electric&hl=hi", Hreflang: "hi"},
	}, alts)
}

func TestItemListOfProducts(t *testing.T) {
	list := ItemList([]map[string]any{
		Product("Roadster 350", "Velo", "/img/r.jpg", "roadster-350", 120000, "INR"),
		Product("City Glide", "", "", "city-glide", 0, "INR"),
	})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(JSON(list)), &decoded))
	require.Equal(t, "ItemList", decoded["@type"])
	items := decoded["itemListElement"].([]any)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	require.EqualValues(t, 1, first["position"])
	product := first["item"].(map[string]any)
	require.Equal(t, "Roadster 350", product["name"])
	offer := product["offers"].(map[string]any)
	require.EqualValues(t, 120000, offer["price"])
	require.Equal(t, "INR", offer["priceCurrency"])

	second := items[1].(map[string]any)["item"].(map[string]any)
	require.NotContains(t, second, "offers")
	require.NotContains(t, second, "brand")
}

func TestWebSiteSearchAction(t *testing.T) {
	m := WebSite("Bike Gallery", "https://shop.test/", "https://shop.test/?q=")
	action := m["potentialAction"].(map[string]any)
	require.Equal(t, "https://shop.test/?q={search_term_string}", action["target"])
	require.Equal(t, "", JSON(make(chan int)))
}
