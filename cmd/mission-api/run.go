package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/servicemarket/missions/internal/api_server"
	"github.com/servicemarket/missions/internal/config"
	"github.com/servicemarket/missions/internal/notification"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var printConfig bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the missions api, metrics server and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if printConfig {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			fmt.Print(cfg.String())
			return nil
		}

		cfg, _, s, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		// sqlite is a development database and gets the schema from the models
		if cfg.Database.Type != "pgsql" {
			if err := s.InitialMigration(context.Background()); err != nil {
				return fmt.Errorf("running initial migration: %w", err)
			}
		}

		producer, err := notification.NewGateway(cfg.Service.Notification)
		if err != nil {
			return fmt.Errorf("creating notification gateway: %w", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				zap.S().Errorw("failed to flush notifications", "error", err)
			}
		}()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		errs := make(chan error, 2)
		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				errs <- fmt.Errorf("creating listener: %w", err)
				return
			}

			server := apiserver.New(cfg, s, producer, listener)
			if err := server.Run(ctx); err != nil {
				errs <- fmt.Errorf("running api server: %w", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				errs <- fmt.Errorf("creating metrics listener: %w", err)
				return
			}

			metricsServer, err := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, s)
			if err != nil {
				errs <- fmt.Errorf("creating metrics server: %w", err)
				return
			}
			if err := metricsServer.Run(ctx); err != nil {
				errs <- fmt.Errorf("running metrics server: %w", err)
			}
		}()

		<-ctx.Done()
		select {
		case err := <-errs:
			return err
		default:
			return nil
		}
	},
}

func init() {
	runCmd.Flags().BoolVar(&printConfig, "print-config", false, "Print the effective configuration and exit")
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
