package http

import (
	"context"
	"net/http"
	"time"
)

// NewServer crea el http.Server con timeouts razonables.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Start levanta el server y bloquea hasta que falle o se llame Shutdown.
func Start(addr string, handler http.Handler) error {
	return NewServer(addr, handler).ListenAndServe()
}

// Shutdown apaga el server de forma graceful con el timeout dado.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
