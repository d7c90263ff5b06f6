package cartui

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/observability"
)

// Action is the cart operation a click maps to.
type Action int

const (
	ActionNone Action = iota
	ActionAdd
	ActionIncrement
	ActionDecrement
	ActionRemoveCard
	ActionRemoveRow
	ActionTogglePanel
	ActionClosePanel
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionIncrement:
		return "increment"
	case ActionDecrement:
		return "decrement"
	case ActionRemoveCard:
		return "remove_card"
	case ActionRemoveRow:
		return "remove_row"
	case ActionTogglePanel:
		return "toggle_panel"
	case ActionClosePanel:
		return "close_panel"
	default:
		return "none"
	}
}

// Classify maps a clicked element to an action by its nearest matching ancestor,
// checked in the order add, increment, decrement, remove, panel. It also returns
// the matched control.
func Classify(target *goquery.Selection) (Action, *goquery.Selection) {
	if target == nil || target.Length() == 0 {
		return ActionNone, nil
	}
	target = target.First()
	if c := target.Closest(SelAddCart); c.Length() > 0 {
		return ActionAdd, c
	}
	if c := target.Closest(SelQtyInc); c.Length() > 0 {
		return ActionIncrement, c
	}
	if c := target.Closest(SelQtyDec); c.Length() > 0 {
		return ActionDecrement, c
	}
	if c := target.Closest(SelQtyRemove + ", " + SelRowRemove); c.Length() > 0 {
		if _, ok := c.Attr(attrIndex); ok {
			return ActionRemoveRow, c
		}
		return ActionRemoveCard, c
	}
	if c := target.Closest(SelCartIcon); c.Length() > 0 {
		return ActionTogglePanel, c
	}
	if c := target.Closest(SelCloseCart); c.Length() > 0 {
		return ActionClosePanel, c
	}
	return ActionNone, nil
}

// Dispatcher routes clicks to handlers. A failing or panicking handler is logged
// and counted; it never escapes Click.
type Dispatcher struct {
	h *Handlers
}

// NewDispatcher returns a dispatcher over h.
func NewDispatcher(h *Handlers) *Dispatcher {
	return &Dispatcher{h: h}
}

// Click classifies target and runs the matching handler.
func (d *Dispatcher) Click(ctx context.Context, page *Page, target *goquery.Selection) Action {
	action, control := Classify(target)
	d.Dispatch(ctx, page, action, control)
	return action
}

// Dispatch runs action with subject as the clicked control or, for card actions, the card.
func (d *Dispatcher) Dispatch(ctx context.Context, page *Page, action Action, subject *goquery.Selection) {
	if action == ActionNone || page == nil {
		return
	}
	ctx, span := observability.Tracer().Start(ctx, "cart."+action.String())
	outcome := "noop"
	defer func() {
		if r := recover(); r != nil {
			outcome = "error"
			span.SetStatus(codes.Error, "panic")
			d.h.Logger.Error("cart handler panicked",
				zap.Stringer("action", action),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"),
			)
		}
		span.SetAttributes(attribute.String("cart.outcome", outcome))
		span.End()
		d.h.Metrics.IncAction(action.String(), outcome)
	}()

	changed, err := d.run(ctx, page, action, subject)
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.h.Logger.Warn("cart action failed", zap.Stringer("action", action), zap.Error(err))
	case changed:
		outcome = "applied"
	}
}

func (d *Dispatcher) run(ctx context.Context, page *Page, action Action, subject *goquery.Selection) (bool, error) {
	switch action {
	case ActionTogglePanel:
		return d.h.TogglePanel(page), nil
	case ActionClosePanel:
		return d.h.ClosePanel(page), nil
	case ActionRemoveRow:
		return d.h.RemoveRow(ctx, page, subject)
	}

	card := cardOf(subject)
	if card == nil {
		return false, nil
	}
	switch action {
	case ActionAdd:
		return d.h.Add(ctx, page, card)
	case ActionIncrement:
		return d.h.Increment(ctx, page, card)
	case ActionDecrement:
		return d.h.Decrement(ctx, page, card)
	case ActionRemoveCard:
		return d.h.RemoveCard(ctx, page, card)
	}
	return false, nil
}

func cardOf(s *goquery.Selection) *goquery.Selection {
	if s == nil || s.Length() == 0 {
		return nil
	}
	card := s.First().Closest(SelCard)
	if card.Length() == 0 {
		return nil
	}
	return card
}
