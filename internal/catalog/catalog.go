// Package catalog loads the product cards shown on the storefront and filters them.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"finitefield.org/storefront-web/internal/format"
)

// Categories are the slider tabs, in display order. Products without a category
// are spread across them round-robin.
var Categories = []string{"trending", "popular", "electric", "upcoming"}

// ErrDuplicateProduct is returned when two products share an id.
var ErrDuplicateProduct = errors.New("catalog: duplicate product id")

// Product is one card on the storefront.
type Product struct {
	ID          string `yaml:"id" validate:"required,max=120"`
	Name        string `yaml:"name" validate:"required,max=200"`
	Brand       string `yaml:"brand" validate:"max=80"`
	Price       int64  `yaml:"price" validate:"gte=0"`
	Category    string `yaml:"category" validate:"omitempty,oneof=trending popular electric upcoming"`
	Delivery    string `yaml:"delivery" validate:"max=80"`
	Deal        bool   `yaml:"deal"`
	Image       string `yaml:"image" validate:"omitempty,uri"`
	Description string `yaml:"description"`

	DescriptionHTML template.HTML `yaml:"-"`
}

// PriceLabel is the rupee display price, or "" when the product has none.
func (p Product) PriceLabel() string {
	if p.Price <= 0 {
		return ""
	}
	return format.FmtCurrency(decimal.NewFromInt(p.Price), "INR")
}

// DealFlag is the data-deal attribute value.
func (p Product) DealFlag() string {
	if p.Deal {
		return "yes"
	}
	return "no"
}

type catalogFile struct {
	Products []Product `yaml:"products" validate:"dive"`
}

// Catalog is an immutable, validated product list.
type Catalog struct {
	products   []Product
	brands     []string
	deliveries []string
}

var (
	validate     = validator.New()
	markdown     = goldmark.New()
	descriptions = bluemonday.UGCPolicy()
)

// Load reads and parses a YAML catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes, validates and prepares a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	seen := make(map[string]bool, len(file.Products))
	for i := range file.Products {
		p := &file.Products[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.Brand = strings.TrimSpace(p.Brand)
		p.Category = strings.ToLower(strings.TrimSpace(p.Category))
		if p.Category == "" {
			p.Category = Categories[i%len(Categories)]
		}
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("catalog: product %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		seen[p.ID] = true

		html, err := renderDescription(p.Description)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %s description: %w", p.ID, err)
		}
		p.DescriptionHTML = html
	}
	return &Catalog{
		products:   file.Products,
		brands:     distinct(file.Products, func(p Product) string { return p.Brand }),
		deliveries: distinct(file.Products, func(p Product) string { return p.Delivery }),
	}, nil
}

func renderDescription(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(descriptions.SanitizeBytes(buf.Bytes())), nil
}

func distinct(products []Product, key func(Product) string) []string {
	set := map[string]struct{}{}
	for _, p := range products {
		if v := key(p); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Brands returns the distinct brands, sorted.
func (c *Catalog) Brands() []string { return append([]string(nil), c.brands...) }

// Deliveries returns the distinct delivery options, sorted.
func (c *Catalog) Deliveries() []string { return append([]string(nil), c.deliveries...) }

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
