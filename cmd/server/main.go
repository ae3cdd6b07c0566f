package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"blockfall/config"
	"blockfall/logging"
	"blockfall/server"
	"blockfall/settings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "blockfall-server",
	Short: "Run bot matches and stream them to spectators",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, settings.Puyo)
		if err != nil {
			return err
		}
		l := logging.New(os.Stderr, "server", cfg.Log.Level)

		spectator, err := server.New(cfg.Settings, cfg.Server.FPS, l)
		if err != nil {
			return err
		}
		lis, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		defer lis.Close()
		s := grpc.NewServer()
		defer s.Stop()
		server.RegisterSpectatorServer(s, spectator)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			if err := spectator.Keep(ctx, cfg.Server.Matches); err != nil && !errors.Is(err, context.Canceled) {
				l.Error("unable to keep matches running", slog.String("error", err.Error()))
			}
		}()
		go func() {
			<-ctx.Done()
			s.GracefulStop()
		}()

		l.Info("starting server", slog.String("addr", lis.Addr().String()), slog.Int("matches", cfg.Server.Matches))
		if err := s.Serve(lis); err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
