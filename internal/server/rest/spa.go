package rest

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler serves the client bundle from dir. GET and HEAD requests for
// files that do not exist get index.html so the client router can resolve
// them; API paths and other methods go to notFound.
func spaHandler(dir string, notFound http.HandlerFunc) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) ||
			r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			notFound(w, r)
			return
		}

		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if st, err := os.Stat(name); err == nil && !st.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, index)
	}
}
