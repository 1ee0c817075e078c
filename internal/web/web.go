// Package web serves the embedded landing page and its static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed views/index.html public
var content embed.FS

// Index writes the landing page.
func Index(w http.ResponseWriter, r *http.Request) {
	page, err := content.ReadFile("views/index.html")
	if err != nil {
		http.Error(w, "landing page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// Static serves files from the embedded public directory, mounted under prefix.
func Static(prefix string) http.Handler {
	public, err := fs.Sub(content, "public")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(public)))
}

// Fallback serves public files from the site root for GET and HEAD, answering
// 404 for everything else. It is meant as the router's not-found handler.
func Fallback() http.Handler {
	files := Static("")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || r.URL.Path == "/" {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
