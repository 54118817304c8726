package api

import (
	_ "embed"
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"postit/pkg/api/handlers"
)

//go:embed openapi.yaml
var openapiDoc []byte

// Options tunes the public router.
type Options struct {
	// MaxBodySize caps POST bodies; zero uses handlers.DefaultMaxBodySize.
	MaxBodySize int64
	// Docs serves the Swagger UI at /docs/ and the OpenAPI document at /openapi.yaml.
	Docs bool
}

// NewRouter returns a router with the public endpoints:
//   - GET  /            greeting
//   - POST /api/message add a message
//   - GET  /api/message list messages
//
// Callers may register further routes on the returned router.
func NewRouter(svc handlers.MessageService, opts Options) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterRoot(r)
	handlers.RegisterMessages(r, svc, opts.MaxBodySize)
	if opts.Docs {
		r.HandleFunc("/openapi.yaml", serveOpenAPI).Methods(http.MethodGet)
		r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	}
	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapiDoc)
}
