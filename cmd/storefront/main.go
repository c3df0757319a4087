package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/pc_shop/pkg/config"
	"github.com/Skotchmaster/pc_shop/pkg/hash"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

var Version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not load .env: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:     "storefront",
		Short:   "PC Shop storefront: catalog, cart, checkout and PIX payments",
		Version: Version,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	return cfg, logger
}

func serveCmd() *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadConfig()
			if err := config.Require(map[string]string{
				"DATABASE_URL": cfg.DatabaseURL,
				"JWT_SECRET":   string(cfg.JWTAccessSecret),
			}); err != nil {
				return err
			}
			if cfg.AdminPasswordHash == "" {
				logger.Warn("admin login disabled", "reason", "ADMIN_PASSWORD_HASH is empty")
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer a.Close()

			if !skipSeed {
				n, err := a.catalog.Seed(logging.IntoContext(cmd.Context(), logger))
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				if n > 0 {
					logger.Info("catalog seeded", "products", n)
				}
			}

			srv := &http.Server{
				Addr:              ":" + strconv.Itoa(cfg.ServerPort),
				Handler:           a.echo,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      15 * time.Second,
				ReadHeaderTimeout: 3 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("storefront listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case err := <-errCh:
				return fmt.Errorf("listen: %w", err)
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)

			logger.Info("storefront stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipSeed, "no-seed", false, "do not insert example products into an empty catalog")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the example products when the catalog is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadConfig()
			if err := config.Require(map[string]string{"DATABASE_URL": cfg.DatabaseURL}); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer a.Close()

			n, err := a.catalog.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d product(s)\n", n)
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := hash.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
