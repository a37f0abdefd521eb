package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"admin-console/internal/admin/adapter/wsclient"
	"admin-console/internal/admin/domain/model"
	"admin-console/internal/shared/logger"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var (
		server   string
		replay   int
		attempts int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream notifications from a running console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewNopLogger()
			if app.Verbose {
				log = logger.NewLoggerWithOutput(cmd.ErrOrStderr(), "debug", "text")
			}
			client, err := wsclient.NewNotificationClient(server, wsclient.Options{
				Replay:               replay,
				MaxReconnectAttempts: attempts,
			}, log)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = client.Listen(ctx, func(n model.Notification) {
				fmt.Fprintln(cmd.OutOrStdout(), formatNotification(n))
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	defaultServer := os.Getenv("ADMIN_WS_URL")
	if defaultServer == "" {
		defaultServer = "ws://localhost:3000/ws/notifications"
	}
	cmd.Flags().StringVar(&server, "server", defaultServer, "Notification WebSocket URL (env ADMIN_WS_URL)")
	cmd.Flags().IntVar(&replay, "replay", 0, "Print up to N stored notifications first")
	cmd.Flags().IntVar(&attempts, "max-reconnects", 5, "Give up after N consecutive failed connections")
	return cmd
}

func formatNotification(n model.Notification) string {
	line := fmt.Sprintf("%s [%s] %s %s", n.Timestamp.Local().Format("15:04:05"), n.Kind, n.Operation, n.Resource)
	if n.RecordID != "" {
		line += " " + n.RecordID
	}
	return line + ": " + n.Message
}
