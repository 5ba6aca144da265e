// Command hris-stub runs the in-memory HRIS backend double on a local port
// so the attend CLI can be exercised without a real deployment.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/staffsync/attendance-go/internal/stub"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "hris-stub"),
	)
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "local-development-secret"
	}

	srv, err := stub.New(secret, stub.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build stub server", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%s", port)
	logger.Info("hris stub listening", "addr", addr,
		"employee_id", stub.SeedEmployeeID, "password", stub.SeedPassword)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
