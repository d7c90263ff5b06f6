package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const slotKeyPrefix = "cart"

var (
	// ErrSlotEmpty is returned by a Slot when nothing is stored under the key.
	ErrSlotEmpty = errors.New("cart: slot empty")
	// ErrSlotUnavailable wraps slot read failures other than an empty slot.
	ErrSlotUnavailable = errors.New("cart: slot unavailable")
)

// Slot is a durable key-value cell holding one serialized cart per key.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SlotKey returns the slot key for the given cart owner (a session id).
func SlotKey(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return slotKeyPrefix
	}
	return slotKeyPrefix + ":" + owner
}

// Store reads and writes full cart snapshots to a single slot key.
type Store struct {
	slot   Slot
	key    string
	logger *zap.Logger
}

// NewStore binds a slot key to the JSON cart codec.
func NewStore(slot Slot, key string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{slot: slot, key: key, logger: logger}
}

// Key returns the slot key this store writes to.
func (s *Store) Key() string { return s.key }

// Load returns the persisted cart. Missing, unreadable or malformed data yields an empty cart.
func (s *Store) Load(ctx context.Context) Cart {
	c, err := s.Fetch(ctx)
	if err != nil {
		s.logger.Warn("cart slot read failed", zap.String("key", s.key), zap.Error(err))
		return Cart{}
	}
	return c
}

// Fetch is Load for callers about to write: an empty slot or malformed data is
// an empty cart, any other read failure is returned wrapped in ErrSlotUnavailable.
func (s *Store) Fetch(ctx context.Context) (Cart, error) {
	if s == nil || s.slot == nil {
		return Cart{}, nil
	}
	raw, err := s.slot.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		return Cart{}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %w", ErrSlotUnavailable, s.key, err)
	}
	return Decode(raw, s.logger), nil
}

// Save writes the full cart, replacing whatever the slot held before.
func (s *Store) Save(ctx context.Context, c Cart) error {
	if s == nil || s.slot == nil {
		return errors.New("cart: store not configured")
	}
	raw, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.slot.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("cart: save %s: %w", s.key, err)
	}
	return nil
}

// Clear removes the slot entirely.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil || s.slot == nil {
		return errors.New("cart: store not configured")
	}
	if err := s.slot.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrSlotEmpty) {
		return fmt.Errorf("cart: clear %s: %w", s.key, err)
	}
	return nil
}

// Encode serializes the cart as the JSON array stored in a slot.
func Encode(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cart: encode: %w", err)
	}
	return raw, nil
}

// Decode parses a stored JSON array. A payload that is not an array decodes to an
// empty cart; entries that cannot be read are skipped one by one.
func Decode(raw []byte, logger *zap.Logger) Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Cart{}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("discarding malformed cart", zap.Error(err))
		return Cart{}
	}
	items := make(Cart, 0, len(entries))
	for i, entry := range entries {
		it, err := decodeItem(entry)
		if err != nil {
			logger.Warn("skipping malformed cart entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	return normalize(items)
}

// storedItem mirrors Item with loose field types: browsers wrote qty as a number
// or a numeric string, and price as a string or a bare number.
type storedItem struct {
	ID    json.RawMessage `json:"id"`
	Name  json.RawMessage `json:"name"`
	Price json.RawMessage `json:"price"`
	Img   json.RawMessage `json:"img"`
	Brand json.RawMessage `json:"brand"`
	Qty   json.RawMessage `json:"qty"`
}

func decodeItem(raw json.RawMessage) (Item, error) {
	var rec storedItem
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Item{}, err
	}
	var it Item
	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"id", rec.ID, &it.ID},
		{"name", rec.Name, &it.Name},
		{"price", rec.Price, &it.Price},
		{"img", rec.Img, &it.Img},
		{"brand", rec.Brand, &it.Brand},
	}
	for _, f := range fields {
		v, err := scalarText(f.raw)
		if err != nil {
			return Item{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	qty, err := looseQty(rec.Qty)
	if err != nil {
		return Item{}, fmt.Errorf("qty: %w", err)
	}
	it.Qty = qty
	return it, nil
}

// scalarText reads a JSON string or number as text. Absent and null read as "".
func scalarText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", raw)
	}
	return n.String(), nil
}

// looseQty reads qty as a JSON number or numeric string, truncating fractions.
// Absent, null or non-finite values read as 0 and are clamped by normalize.
func looseQty(raw json.RawMessage) (int, error) {
	text, err := scalarText(raw)
	if err != nil || strings.TrimSpace(text) == "" {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	if math.IsNaN(f) || f < 1 {
		return 0, nil
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	return int(f), nil
}
