package rest

import (
	"fmt"
	"net/http"
	"time"
)

// Start serves the liveness endpoint used by deploy probes. Game traffic
// never touches this server; it stays up even while websocket upgrades
// are being drained.
func Start(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
