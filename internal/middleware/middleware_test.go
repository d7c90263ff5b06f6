package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"finitefield.org/storefront-web/internal/config"
	"finitefield.org/storefront-web/internal/i18n"
	"finitefield.org/storefront-web/internal/observability"
)

func testSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(config.SessionConfig{
		CookieName: "sf_test",
		HashKey:    "0123456789abcdef0123456789abcdef",
		BlockKey:   "abcdef0123456789abcdef0123456789",
	})
	require.NoError(t, err)
	return m
}

func findCookie(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionIssuesAndRestoresCookie(t *testing.T) {
	m := testSessionManager(t)
	var seen []*SessionData
	h := m.Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		seen = append(seen, s)
		if r.URL.Query().Get("panel") == "1" {
			s.SetPanelOpen(true)
		}
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := findCookie(t, rec.Result(), "sf_test")
	require.NotNil(t, c)
	require.True(t, c.HttpOnly)
	require.NotEmpty(t, seen[0].ID)
	require.NotEmpty(t, seen[0].CSRFToken)

	req := httptest.NewRequest(http.MethodGet, "/?panel=1", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, seen[0].ID, seen[1].ID)
	require.Equal(t, seen[0].CSRFToken, seen[1].CSRFToken)
	updated := findCookie(t, rec.Result(), "sf_test")
	require.NotNil(t, updated, "panel change must rewrite the cookie")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(updated)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.True(t, seen[2].PanelOpen)
	require.Nil(t, findCookie(t, rec.Result(), "sf_test"), "unchanged session is not rewritten")
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	m := testSessionManager(t)
	var id string
	h := m.Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetSession(r).ID
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_test", Value: "forged"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotEmpty(t, id)
	require.NotNil(t, findCookie(t, rec.Result(), "sf_test"))
}

func TestSessionWritesCookieWhenHandlerWritesNothing(t *testing.T) {
	m := testSessionManager(t)
	h := m.Session(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	require.NotNil(t, findCookie(t, rec.Result(), "sf_test"))
}

func TestNewSessionManagerValidatesBlockKey(t *testing.T) {
	_, err := NewSessionManager(config.SessionConfig{HashKey: "x", BlockKey: "short"})
	require.ErrorIs(t, err, ErrInvalidSessionConfig)

	m, err := NewSessionManager(config.SessionConfig{})
	require.NoError(t, err)
	require.Equal(t, defaultSessionCookie, m.CookieName())
}

func csrfRouter(t *testing.T) (http.Handler, *http.Cookie, string) {
	t.Helper()
	m := testSessionManager(t)
	r := chi.NewRouter()
	r.Use(HTMX, m.Session, CSRF(false))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CSRFToken(r)))
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	sess := findCookie(t, rec.Result(), "sf_test")
	require.NotNil(t, sess)
	csrf := findCookie(t, rec.Result(), csrfCookieName)
	require.NotNil(t, csrf)
	require.Equal(t, rec.Body.String(), csrf.Value)
	return r, sess, csrf.Value
}

func TestCSRFAcceptsHeaderOrFormField(t *testing.T) {
	r, sess, token := csrfRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(sess)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	req.Header.Set(csrfHeader, token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	form := url.Values{csrfFormField: {token}}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(sess)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCSRFRejectsMissingOrWrongToken(t *testing.T) {
	r, sess, token := csrfRouter(t)

	cases := map[string]func(*http.Request){
		"no token": func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		},
		"wrong token": func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
			req.Header.Set(csrfHeader, "nope")
		},
		"no cookie": func(req *http.Request) {
			req.Header.Set(csrfHeader, token)
		},
	}
	for name, prep := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.AddCookie(sess)
			prep(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestCSRFErrorIsJSONForHTMX(t *testing.T) {
	r, sess, _ := csrfRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("HX-Request", "true")
	req.AddCookie(sess)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.JSONEq(t, `{"error":"invalid CSRF token","status":403}`, rec.Body.String())
	require.Equal(t, "none", rec.Header().Get("HX-Reswap"))
}

func TestLoggerEmitsRequestEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var ctxLogger *zap.Logger
	r := chi.NewRouter()
	r.Use(chiMid.RequestID, HTMX, Logger(zap.New(core)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = observability.FromContext(r.Context())
		_, ok := RequestID(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, ctxLogger)
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, int64(http.StatusTeapot), fields["status"])
	require.Equal(t, "/boom", fields["path"])
	require.Equal(t, true, fields["htmx"])
	require.NotEmpty(t, fields["request_id"])
}

func TestLocalePrefersQueryThenHeader(t *testing.T) {
	bundle, err := i18n.Load("../../locales", "en", []string{"en", "hi"})
	require.NoError(t, err)
	m := testSessionManager(t)

	var lang string
	h := m.Session(VaryLocale(Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "hi-IN,en;q=0.5")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "hi", lang)
	require.Equal(t, "hi", rec.Header().Get("Content-Language"))
	require.Equal(t, []string{"Accept-Language", "Cookie"}, rec.Header().Values("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/?hl=en", nil)
	req.Header.Set("Accept-Language", "hi")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.NotNil(t, findCookie(t, rec.Result(), localeCookie))

	req = httptest.NewRequest(http.MethodGet, "/?hl=xx", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
}

func TestAssetsWithCacheServesETag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "app.css"), []byte("body{}"), 0o644))

	h := http.StripPrefix("/assets", AssetsWithCache(dir))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/assets/css/app.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)

	for _, inm := range []string{`"nope", ` + etag, "*", strings.TrimPrefix(etag, "W/")} {
		req = httptest.NewRequest(http.MethodGet, "/assets/css/app.css", nil)
		req.Header.Set("If-None-Match", inm)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotModified, rec.Code, inm)
	}

	req = httptest.NewRequest(http.MethodGet, "/assets/css/app.css", nil)
	req.Header.Set("If-None-Match", `W/"stale"`)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	require.Equal(t, []string{"Accept-Encoding"}, rec.Header().Values("Vary"))
}

func TestVaryLocaleKeepsExistingValues(t *testing.T) {
	h := VaryLocale(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	rec.Header().Set("Vary", "accept-language, Origin")
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"accept-language, Origin", "Cookie"}, rec.Header().Values("Vary"))
}

func TestWriteErrorCarriesRequestID(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chiMid.RequestID, HTMX, Logger(zap.NewNop()))
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusBadRequest, "unknown cart control")
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, http.StatusBadRequest, body.Status)
	require.NotEmpty(t, body.RequestID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unknown cart control", strings.TrimSpace(rec.Body.String()))
}

func TestTriggerEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, TriggerEvent(rec, "cart:updated", map[string]int{"count": 3}))
	require.JSONEq(t, `{"cart:updated":{"count":3}}`, rec.Header().Get("HX-Trigger"))
	require.Error(t, TriggerEvent(rec, "bad", make(chan int)))
}
