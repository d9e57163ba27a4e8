// Package scalar serves the Scalar API reference page for the OpenAPI
// document published by the API module.
package scalar

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/speechmark/pkg/module"
)

//go:embed index.html
var staticFS embed.FS

// NewModule creates a module that serves the reference UI at basePath,
// reading the OpenAPI document from specURL.
func NewModule(basePath, specURL string) *module.Module {
	return module.New(basePath, buildRouter(specURL))
}

func buildRouter(specURL string) http.Handler {
	mux := http.NewServeMux()

	tmpl := template.Must(template.ParseFS(staticFS, "index.html"))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{"SpecURL": specURL})
	})

	return mux
}
