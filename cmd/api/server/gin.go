package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SetupOpsServer wraps the Gin ops router in an http.Server
func SetupOpsServer(router http.Handler, addr string, l *zap.Logger) *http.Server {
	l.Info("ops server configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
