package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/cartui"
	"finitefield.org/storefront-web/internal/catalog"
	mw "finitefield.org/storefront-web/internal/middleware"
	"finitefield.org/storefront-web/internal/observability"
	"finitefield.org/storefront-web/internal/seo"
)

const storefrontRoot = "#storefront"

type categoryTab struct {
	Key    string
	Label  string
	URL    string
	Active bool
}

// storefrontView is the data the "base" and "storefront" templates render.
type storefrontView struct {
	Lang       string
	Title      string
	CSRFToken  string
	Return     string
	Query      catalog.Query
	Categories []categoryTab
	Brands     []string
	Deliveries []string
	Products   []catalog.Product
	Window     catalog.Window
	PageNumber int
	PrevURL    string
	NextURL    string
	MinPrice   string
	MaxPrice   string
	SEO        seo.Meta
}

func storefrontURL(q catalog.Query) string {
	v := q.Values()
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

func (a *app) buildView(r *http.Request, q catalog.Query) storefrontView {
	lang := mw.Lang(r)
	filtered := a.catalog.Filter(q)
	win := catalog.Paginate(len(filtered), a.cfg.Catalog.PerView, q.Page)
	q.Page = win.Index

	view := storefrontView{
		Lang:       lang,
		Title:      a.i18n.T(lang, "site.title"),
		CSRFToken:  mw.CSRFToken(r),
		Return:     storefrontURL(q),
		Query:      q,
		Brands:     a.catalog.Brands(),
		Deliveries: a.catalog.Deliveries(),
		Products:   filtered[win.Start:win.End],
		Window:     win,
		PageNumber: win.Index + 1,
	}
	if q.MinPrice > 0 {
		view.MinPrice = strconv.FormatInt(q.MinPrice, 10)
	}
	if q.MaxPrice != catalog.DefaultMaxPrice {
		view.MaxPrice = strconv.FormatInt(q.MaxPrice, 10)
	}
	for _, c := range catalog.Categories {
		tab := q
		tab.Category = c
		tab.Search = ""
		tab.Page = 0
		view.Categories = append(view.Categories, categoryTab{
			Key:    c,
			Label:  a.i18n.T(lang, "category."+c),
			URL:    storefrontURL(tab),
			Active: q.Search == "" && c == q.Category,
		})
	}
	if win.HasPrev {
		prev := q
		prev.Page = win.Index - 1
		view.PrevURL = storefrontURL(prev)
	}
	if win.HasNext {
		next := q
		next.Page = win.Index + 1
		view.NextURL = storefrontURL(next)
	}
	view.SEO = a.buildSEO(r, view)
	return view
}

func (a *app) buildSEO(r *http.Request, view storefrontView) seo.Meta {
	canonical := absoluteURL(r, view.Return)
	root := absoluteURL(r, "/")
	desc := a.i18n.T(view.Lang, "site.description")

	products := make([]map[string]any, 0, len(view.Products))
	for _, p := range view.Products {
		img := p.Image
		if strings.HasPrefix(img, "/") {
			u := absoluteURL(r, img)
			img = u.String()
		}
		products = append(products, seo.Product(p.Name, p.Brand, img, p.ID, p.Price, "INR"))
	}

	meta := seo.Meta{
		Title:       view.Title,
		Description: desc,
		Canonical:   canonical.String(),
		OG: seo.OpenGraph{
			Title:       view.Title,
			Description: desc,
			Type:        "website",
			URL:         canonical.String(),
			SiteName:    view.Title,
		},
		Alternates: seo.Alternates(canonical, a.i18n.Supported()),
		JSONLD: []string{
			seo.JSON(seo.WebSite(view.Title, root.String(), root.String()+"?q=")),
			seo.JSON(seo.ItemList(products)),
		},
	}
	if len(view.Products) > 0 && view.Products[0].Image != "" {
		meta.OG.Image = products[0]["image"].(string)
	}
	return meta
}

// absoluteURL resolves a site-relative path against the request host.
func absoluteURL(r *http.Request, path string) url.URL {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	u, err := url.Parse(path)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	u.Scheme = scheme
	u.Host = r.Host
	return *u
}

func (a *app) labels(lang string) cartui.Labels {
	return cartui.Labels{
		Add:       a.i18n.T(lang, "cart.add"),
		Remove:    a.i18n.T(lang, "cart.remove"),
		Increment: a.i18n.T(lang, "cart.increment"),
		Decrement: a.i18n.T(lang, "cart.decrement"),
		Qty:       a.i18n.T(lang, "cart.qty"),
		Item:      a.i18n.T(lang, "cart.item"),
	}
}

// renderPage renders the storefront for view and reconciles it with repo.
func (a *app) renderPage(ctx context.Context, view storefrontView, repo *cart.Repository, panelOpen bool) (*cartui.Page, *cartui.Handlers, error) {
	var buf bytes.Buffer
	if err := a.templates.execute(&buf, "base", view); err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return nil, nil, fmt.Errorf("parse storefront: %w", err)
	}
	labels := a.labels(view.Lang)
	cartui.NormalizeCTAs(doc, labels.Add)

	logger := observability.FromContext(ctx)
	h := cartui.NewHandlers(labels, a.metrics, logger)
	page := &cartui.Page{Doc: doc, Cart: repo, PanelOpen: panelOpen}
	if err := h.Reconcile(page); err != nil {
		logger.Warn("reconcile storefront", zap.Error(err))
	}
	return page, h, nil
}

// StorefrontHandler renders the catalog with the visitor's cart projected onto it.
// htmx requests receive only the #storefront fragment.
func (a *app) StorefrontHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	view := a.buildView(r, catalog.ParseQuery(r.URL.Query()))
	htmx := mw.IsHTMX(r.Context())

	var out string
	err := a.withCart(r, sess.ID, func(repo *cart.Repository, _ bool) error {
		page, _, err := a.renderPage(r.Context(), view, repo, sess.PanelOpen)
		if err != nil {
			return err
		}
		if htmx {
			out, err = fragment(page.Doc)
			return err
		}
		out, err = page.Doc.Html()
		return err
	})
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if htmx {
		w.Header().Set("HX-Push-Url", view.Return)
	}
	_, _ = io.WriteString(w, out)
}

func fragment(doc *goquery.Document) (string, error) {
	root := doc.Find(storefrontRoot).First()
	if root.Length() == 0 {
		return "", fmt.Errorf("storefront root %s missing", storefrontRoot)
	}
	return goquery.OuterHtml(root)
}

func (a *app) serverError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).Error("storefront render failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// returnTarget picks the storefront URL a cart post came from: the "return" form
// field, then a same-host Referer, then "/".
func returnTarget(r *http.Request) *url.URL {
	for _, raw := range []string{r.PostFormValue("return"), r.Referer()} {
		if u, ok := storefrontTarget(raw, r.Host); ok {
			return u
		}
	}
	return &url.URL{Path: "/"}
}

func storefrontTarget(raw, host string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Host != "" && u.Host != host {
		return nil, false
	}
	if u.Path != "" && u.Path != "/" {
		return nil, false
	}
	return &url.URL{Path: "/", RawQuery: u.RawQuery}, true
}
