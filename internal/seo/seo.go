// Package seo builds the head metadata and schema.org payloads of storefront pages.
package seo

import (
	"net/url"
	"sort"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Alternates  []Alternate
	JSONLD      []string
}

// Alternates returns one link per language for the page at u, switching via the hl parameter.
func Alternates(u url.URL, langs []string) []Alternate {
	langs = append([]string(nil), langs...)
	sort.Strings(langs)
	out := make([]Alternate, 0, len(langs))
	for _, l := range langs {
		q := u.Query()
		q.Set("hl", l)
		v := u
		v.RawQuery = q.Encode()
		out = append(out, Alternate{Href: v.String(), Hreflang: l})
	}
	return out
}
