package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tap-x-project/tap/internal/metrics"
	tapHTTP "github.com/tap-x-project/tap/pkg/agent/transport/http"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the node's DIDComm HTTP endpoint and delivery retry scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, d := range rt.keystore.ListKeys() {
		if err := rt.registerExisting(d); err != nil {
			return fmt.Errorf("registering agent %s: %w", d, err)
		}
	}

	go rt.node.Scheduler().Run(ctx)

	server := tapHTTP.NewHTTPServer(func(raw json.RawMessage) error {
		return rt.node.Dispatch(ctx, raw)
	})
	mux := http.NewServeMux()
	mux.Handle(rt.cfg.HTTP.DIDCommEndpoint, server)
	if rt.cfg.Metrics.Enabled {
		mux.Handle(rt.cfg.Metrics.Path, metrics.Handler())
	}

	addr := fmt.Sprintf("%s:%d", rt.cfg.HTTP.Host, rt.cfg.HTTP.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	fmt.Fprintf(cmd.OutOrStdout(), "tap node listening on %s%s\n", addr, rt.cfg.HTTP.DIDCommEndpoint)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
