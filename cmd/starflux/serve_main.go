package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	server "github.com/sawpanic/starflux/internal/interfaces/http"
)

// runServe starts the compute HTTP server and blocks until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	limit, _ := cmd.Flags().GetFloat64("rate")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	config := server.DefaultServerConfig()
	if host != "" {
		config.Host = host
	}
	if port != 0 {
		config.Port = port
	}
	config.RateLimit = rate.Limit(limit)
	config.RequestTimeout = timeout
	config.Version = version

	srv, err := server.NewServer(config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Printf("starflux API listening on http://%s (Ctrl-C to stop)\n", srv.GetAddress())

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		log.Info().Msg("Server stopped")
		return nil
	}
}
