package server

import (
	"net/http"

	"snaplvd/pkg/httpx"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0"

func writeJSON(w http.ResponseWriter, v any) {
	httpx.WriteJSON(w, v)
}
