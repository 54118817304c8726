package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"postit/pkg/utils"
)

var hello = []byte("Hello, World!")

// RegisterRoot registers the greeting at GET /.
func RegisterRoot(r *mux.Router) {
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteBytes(w, http.StatusOK, "text/plain; charset=utf-8", hello)
	}).Methods(http.MethodGet, http.MethodHead)
}
