package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"admin-console/internal/admin"
	"admin-console/internal/admin/config"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the flags shared by every command.
type App struct {
	APIURL     string
	Timeout    time.Duration
	PrettyJSON bool
	Verbose    bool
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "Manage users and pages on the admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  adminctl list user
  adminctl add page --set title=Home --set slug=home --set content=Welcome
  adminctl edit user u1 --set email=ada@example.com
  adminctl delete page p1 --yes
  adminctl watch --replay 10
`),
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", os.Getenv("ADMIN_API_URL"), "Base URL of the REST API (env ADMIN_API_URL)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Indent JSON output")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Enable debug logging on stderr")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	return cmd
}

// openModule builds an admin module against app.APIURL. The caller must Stop it.
func openModule(cmd *cobra.Command, app *App) (*admin.AdminModule, error) {
	cfg := config.DefaultAdminConfig()
	cfg.Remote.APIURL = app.APIURL
	cfg.Remote.RequestTimeout = app.Timeout
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.NewNopLogger()
	zlog := zap.NewNop()
	if app.Verbose {
		log = logger.NewLoggerWithOutput(cmd.ErrOrStderr(), "debug", "text")
		var err error
		if zlog, err = logger.NewZapLoggerWithConfig("debug", "text", "stderr"); err != nil {
			return nil, err
		}
	}
	return admin.NewAdminModule(cfg, nil, log, zlog)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseSets turns repeated key=value flags into ordered pairs.
func parseSets(sets []string) ([][2]string, error) {
	out := make([][2]string, 0, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: --set expects field=value, got %q", apperrors.ErrInvalidInput, s)
		}
		out = append(out, [2]string{k, v})
	}
	return out, nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// writeErr prints err, one line per field for validation failures.
func writeErr(cmd *cobra.Command, err error) error {
	var ve *apperrors.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", fe.Field, fe.Message)
		}
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), apperrors.Message(err))
	return err
}
