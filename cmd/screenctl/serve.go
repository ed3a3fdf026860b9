package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vibetunnel/screenengine/internal/config"
	"github.com/vibetunnel/screenengine/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listenAddr string
	var controlPath string
	var flags *pflag.FlagSet

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if flags.Changed("listen") {
				cfg.ListenAddr = listenAddr
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()
			log := logger.Sugar()

			srv := server.New(cfg, controlPath, log)

			watcher, err := config.NewWatcher(*configPath, log, srv.ApplyConfig)
			if err != nil {
				return err
			}
			defer watcher.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return srv.ListenAndServe(ctx)
		},
	}

	flags = cmd.Flags()
	flags.StringVar(&listenAddr, "listen", ":7681", "HTTP/websocket bind address")
	flags.StringVar(&controlPath, "control-path", os.TempDir()+"/screenctl", "directory for session control files")
	return cmd
}
