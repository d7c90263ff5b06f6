package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveHonorsQValues(t *testing.T) {
	b, err := Load("../../locales", "en", []string{"en", "hi"})
	require.NoError(t, err)

	require.Equal(t, "hi", b.Resolve("en;q=0.8, hi-IN;q=0.9"))
	require.Equal(t, "en", b.Resolve("fr, de;q=0.5"))
	require.Equal(t, "hi", b.Resolve("hi-IN"))
	require.Equal(t, "en", b.Resolve(""))
	require.Equal(t, "en", b.Resolve(";;;q=bogus"))
	require.Equal(t, []string{"en", "hi"}, b.Supported())
}

func TestTranslateFallsBack(t *testing.T) {
	b, err := Load("../../locales", "en", []string{"en", "hi"})
	require.NoError(t, err)

	require.Equal(t, "Add to Cart", b.T("en", "cart.add"))
	require.Equal(t, "कार्ट में डालें", b.T("hi", "cart.add"))
	require.Equal(t, "Add to Cart", b.T("fr", "cart.add"))
	require.Equal(t, "missing.key", b.T("hi", "missing.key"))
	require.True(t, b.Has("cart.title"))
	require.False(t, b.Has("missing.key"))
}

func TestLoadRequiresFallback(t *testing.T) {
	_, err := Load(t.TempDir(), "en", []string{"en"})
	require.Error(t, err)
}
