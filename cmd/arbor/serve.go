package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/cli"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/observability"
)

// shutdownTimeout bounds the graceful shutdown of the server.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve <file>...",
	Short: "Host trees behind an HTTP API",
	Long: `Loads every definition and exposes the trees over HTTP: listing, inspection,
blackboard snapshots, Mermaid graphs, ticking and Prometheus metrics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		var (
			extra   []arbor.Option
			handler []httpAdapter.Option
		)
		if withMetrics {
			m, err := observability.NewMetrics()
			if err != nil {
				return err
			}
			extra = append(extra, arbor.WithLifecycleHooks(m.Hooks()))
			handler = append(handler, httpAdapter.WithMetrics(m.Handler()))
		}

		eng, trees, err := loadEngine(ctx, args, extra...)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(globalOpts)
		if err != nil {
			return err
		}
		handler = append(handler, httpAdapter.WithLogger(logger))

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           httpAdapter.NewHandler(eng, handler...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting arbor server on %s\n", srv.Addr)
			for _, tree := range trees {
				fmt.Fprintf(out, "Hosting %q (%s)\n", tree.Name(), tree.ID())
			}
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Graceful shutdown did not complete in %v: %v\n", shutdownTimeout, err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "arbor server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
