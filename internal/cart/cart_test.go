package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSlot struct {
	mu      sync.Mutex
	data    map[string][]byte
	fail    error
	getFail error
}

func newMemSlot() *memSlot { return &memSlot{data: map[string][]byte{}} }

func (m *memSlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getFail != nil {
		return nil, m.getFail
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return v, nil
}

func (m *memSlot) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memSlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestSlotKey(t *testing.T) {
	require.Equal(t, "cart", SlotKey(""))
	require.Equal(t, "cart:abc", SlotKey(" abc "))
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemSlot(), SlotKey("s1"), zap.NewNop())
	want := Cart{
		{ID: "Roadster 350", Name: "Roadster 350", Price: "₹1,20,000", Img: "/img/r.png", Brand: "Velo", Qty: 2},
		{ID: "Urban E", Name: "Urban E", Qty: 1},
		{ID: "Trail X", Name: "Trail X", Price: "ask", Brand: "Apex", Qty: 5},
	}
	require.NoError(t, store.Save(ctx, want))
	require.Equal(t, want, store.Load(ctx))
}

func TestStoreLoadMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	store := NewStore(slot, "cart", nil)

	require.Empty(t, store.Load(ctx))

	for _, raw := range []string{`{not json`, `{"id":"x"}`, `"cart"`, `   `, `[{"id":1}]`} {
		slot.data["cart"] = []byte(raw)
		got := store.Load(ctx)
		require.NotNil(t, got, raw)
		require.Empty(t, got, raw)
	}
}

func TestStoreLoadReadErrorYieldsEmpty(t *testing.T) {
	store := NewStore(errSlot{}, "cart", zap.NewNop())
	require.Empty(t, store.Load(context.Background()))
}

type errSlot struct{}

func (errSlot) Get(context.Context, string) ([]byte, error) { return nil, errors.New("boom") }
func (errSlot) Set(context.Context, string, []byte) error   { return errors.New("boom") }
func (errSlot) Delete(context.Context, string) error        { return errors.New("boom") }

func TestDecodeNormalizes(t *testing.T) {
	raw := `[
		{"id":"a","name":"A","qty":2},
		{"id":"","name":"ghost","qty":3},
		{"name":"no id","qty":1},
		{"id":"b","name":null,"price":null,"qty":0},
		{"id":"a","name":"A again","qty":3},
		{"id":"c","qty":-4}
	]`
	got := Decode([]byte(raw), nil)
	require.Equal(t, Cart{
		{ID: "a", Name: "A", Qty: 5},
		{ID: "b", Qty: 1},
		{ID: "c", Qty: 1},
	}, got)
}

func TestDecodeSkipsOnlyBadEntries(t *testing.T) {
	raw := `[
		{"id":"a","name":"A","qty":1.0},
		{"id":"b","name":"B","price":120000,"qty":"2"},
		{"id":"c","name":"C","qty":2.7},
		{"id":"d","name":{"nested":true},"qty":1},
		{"id":"e","qty":"many"},
		"not an object",
		{"id":"f","qty":null}
	]`
	got := Decode([]byte(raw), nil)
	require.Equal(t, Cart{
		{ID: "a", Name: "A", Qty: 1},
		{ID: "b", Name: "B", Price: "120000", Qty: 2},
		{ID: "c", Name: "C", Qty: 2},
		{ID: "f", Qty: 1},
	}, got)

	require.Empty(t, Decode([]byte(`{"id":"a"}`), nil))
}

func TestStoreFetchSeparatesReadFailures(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	store := NewStore(slot, SlotKey("owner"), nil)

	got, err := store.Fetch(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	slot.data[store.Key()] = []byte("{broken")
	got, err = store.Fetch(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	slot.getFail = errors.New("i/o timeout")
	_, err = store.Fetch(ctx)
	require.ErrorIs(t, err, ErrSlotUnavailable)
	require.Empty(t, store.Load(ctx))
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	store := NewStore(slot, "cart:x", nil)
	require.NoError(t, store.Save(ctx, Cart{{ID: "a", Qty: 1}}))
	require.NoError(t, store.Clear(ctx))
	require.Empty(t, store.Load(ctx))
	require.NotContains(t, slot.data, "cart:x")
}

func TestCartHelpers(t *testing.T) {
	c := Cart{{ID: "a", Qty: 2}, {ID: "b", Qty: 3}}
	require.Equal(t, 1, c.IndexOf("b"))
	require.Equal(t, -1, c.IndexOf("z"))
	require.Equal(t, 5, c.TotalQuantity())

	clone := c.Clone()
	clone[0].Qty = 9
	require.Equal(t, 2, c[0].Qty)
	require.NotNil(t, Cart(nil).Clone())
}
