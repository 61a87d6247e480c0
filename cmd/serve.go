package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webdesk/server"
)

func NewServeCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the desktop over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := env.log("serve")
			cfg := env.Config

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			session, err := env.newSession(st, true)
			if err != nil {
				return err
			}
			if err := session.Load(cmd.Context()); err != nil {
				// The session falls back to the default desktop.
				log.WithError(err).Warn("Continuing without the saved desktop")
			}

			srv, err := server.New(session, st, server.Config{
				Addr:           cfg.Addr,
				WriteMode:      cfg.Write,
				UploadDir:      cfg.UploadDir,
				MaxUploadBytes: cfg.MaxUploadBytes,
				AuditLog:       cfg.AuditLog,
				Version:        env.Build.Version,
			}, env.log("server"))
			if err != nil {
				return err
			}

			// Setup signal handler for graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				errChan <- srv.Listen()
			}()

			var listenErr error
			select {
			case listenErr = <-errChan:
				log.WithError(listenErr).Error("Server error")
			case <-sigChan:
				log.Info("Received interrupt signal, shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("Server shutdown incomplete")
			}
			if err := session.Close(ctx); err != nil {
				log.WithError(err).Error("Final save failed")
				return err
			}
			if listenErr != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Addr, listenErr)
			}
			log.Info("Desktop saved, shutting down")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "address to listen on (default :8080)")
	cmd.Flags().Bool("write", false, "enable write mode (allows desktop changes)")
	return cmd
}
