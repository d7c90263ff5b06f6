package main

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/cartui"
	"finitefield.org/storefront-web/internal/catalog"
	mw "finitefield.org/storefront-web/internal/middleware"
	"finitefield.org/storefront-web/internal/observability"
)

// CartClickHandler applies a posted cart control to the visitor's storefront.
// The page the click came from is rendered and reconciled again, the control is
// located in it and dispatched. htmx callers get the updated #storefront markup,
// plain form posts are redirected back.
func (a *app) CartClickHandler(w http.ResponseWriter, r *http.Request) {
	control, ok := cartui.ParseControl(r.PostFormValue("control"))
	if !ok {
		http.Error(w, "unknown cart control", http.StatusBadRequest)
		return
	}
	click := cartui.Click{
		Control: control,
		Card:    r.PostFormValue("card"),
		Item:    r.PostFormValue("item"),
		Index:   r.PostFormValue("index"),
	}
	a.respond(w, r, func(page *cartui.Page, h *cartui.Handlers) {
		ctx := r.Context()
		action := cartui.NewDispatcher(h).Submit(ctx, page, click)
		observability.FromContext(ctx).Debug("cart click",
			zap.String("control", string(click.Control)),
			zap.String("action", action.String()),
		)
	})
}

// CartClearHandler empties the visitor's cart.
func (a *app) CartClearHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	outcome := "applied"
	if err := a.carts.Clear(r.Context(), sess.ID); err != nil {
		outcome = "error"
		a.metrics.IncStoreFailure("clear")
		observability.FromContext(r.Context()).Error("clear cart", zap.Error(err))
	}
	a.metrics.IncAction("clear", outcome)
	a.respond(w, r, nil)
}

// CartJSONHandler returns the stored cart exactly as it is laid out in the slot.
func (a *app) CartJSONHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	items := a.carts.Store(sess.ID).Load(r.Context())
	raw, err := cart.Encode(items)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(raw)
}

// respond runs one reconcile cycle for the storefront the request came from,
// applies mutate inside the owner's lock and writes the result.
func (a *app) respond(w http.ResponseWriter, r *http.Request, mutate func(*cartui.Page, *cartui.Handlers)) {
	sess := mw.GetSession(r)
	target := returnTarget(r)
	view := a.buildView(r, catalog.ParseQuery(target.Query()))
	htmx := mw.IsHTMX(r.Context())

	var (
		out   string
		count int
	)
	err := a.withCart(r, sess.ID, func(repo *cart.Repository, writable bool) error {
		page, h, err := a.renderPage(r.Context(), view, repo, sess.PanelOpen)
		if err != nil {
			return err
		}
		if mutate != nil && writable {
			mutate(page, h)
		}
		sess.SetPanelOpen(page.PanelOpen)
		count = repo.TotalQuantity()
		if htmx {
			out, err = fragment(page.Doc)
		}
		return err
	})
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !htmx {
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
		return
	}
	if err := mw.TriggerEvent(w, "cart:updated", map[string]int{"count": count}); err != nil {
		observability.FromContext(r.Context()).Warn("cart trigger", zap.Error(err))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// withCart runs fn inside the owner's cart cycle. If the slot cannot be read the
// page is still rendered, from an empty read-only cart, and writable is false so
// nothing is written over the stored cart.
func (a *app) withCart(r *http.Request, owner string, fn func(repo *cart.Repository, writable bool) error) error {
	err := a.carts.Do(r.Context(), owner, func(repo *cart.Repository) error {
		return fn(repo, true)
	})
	if !errors.Is(err, cart.ErrSlotUnavailable) {
		return err
	}
	a.metrics.IncStoreFailure("load")
	observability.FromContext(r.Context()).Warn("cart slot unavailable; rendering read-only", zap.Error(err))
	return fn(cart.ReadOnly(nil), false)
}
