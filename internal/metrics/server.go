package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// StartServer binds addr and serves the scrape endpoint at /metrics in the
// background. It returns the bound address, which differs from addr when
// addr asks for port 0, and the server's shutdown function.
func StartServer(addr string, m *Metrics) (string, func(context.Context) error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	bound := ln.Addr().String()
	go func() {
		slog.Info("metrics server listening", "addr", bound)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return bound, server.Shutdown, nil
}
