package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

const assetCacheControl = "public, max-age=604800, stale-while-revalidate=86400"

// AssetsWithCache serves the storefront stylesheet and images from dir with
// long-lived caching and content-hash ETags computed once at startup. Mount it
// behind http.StripPrefix("/assets", ...).
func AssetsWithCache(dir string) http.Handler {
	etags := assetETags(os.DirFS(dir))
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addVary(w.Header(), "Accept-Encoding")
		w.Header().Set("Cache-Control", assetCacheControl)
		if et, ok := etags[path.Clean("/"+r.URL.Path)]; ok {
			w.Header().Set("ETag", et)
			if etagMatches(r.Header.Get("If-None-Match"), et) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

// assetETags hashes every regular file in fsys, keyed by its URL path.
func assetETags(fsys fs.FS) map[string]string {
	etags := map[string]string{}
	_ = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if et, err := fileETag(fsys, p); err == nil {
			etags["/"+p] = et
		}
		return nil
	})
	return etags
}

func fileETag(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`, nil
}

// etagMatches reports whether an If-None-Match header lists et or is "*".
func etagMatches(header, et string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == et || "W/"+candidate == et {
			return true
		}
	}
	return false
}
