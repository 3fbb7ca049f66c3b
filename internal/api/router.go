/**
 * @description
 * This file sets up the HTTP router for the transfer-service: the transfer
 * endpoint, the journal read endpoint, and the liveness probe, behind the
 * standard middleware stack.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TransferRoutes creates and returns the router for the transfer service.
func TransferRoutes(h *TransferHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("service is running"))
	})

	r.Post("/transfer", h.TransferHandler)
	r.Get("/transfers/{id}", h.GetTransferHandler)

	return r
}
