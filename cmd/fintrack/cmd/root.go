// Package cmd provides the fintrack CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/present"
	"fintrack/internal/services"
	"fintrack/internal/trace"
)

// app holds the state shared by every command of one invocation.
type app struct {
	cfgFile   string
	debug     bool
	userEmail string
	jsonOut   bool

	// loc is the zone used for date flags and seed timestamps.
	loc     *time.Location
	logger  *log.Logger
	span    *trace.Span
	backend *backend.BackendResult
}

// NewRootCmd builds the command tree. Each call returns independent state.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{loc: time.Local}

	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Track personal income and expenses",
		Long: `fintrack is a personal finance ledger. It records income and
expense transactions per account and reports them by month.

Example:
  fintrack account create --name "John Doe" --email john@example.com
  fintrack --user john@example.com tx add --amount 12.50 --kind expense --description Lunch
  fintrack --user john@example.com report detailed`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "env file (default is .env)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.userEmail, "user", "", "email of the account to act on")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newAccountCmd(a),
		newCategoryCmd(a),
		newTxCmd(a),
		newReportCmd(a),
		newSeedCmd(a),
		newStatsCmd(a),
	)
	return root, a
}

// Execute runs the CLI with os.Args and releases the backend afterwards.
func Execute() error {
	root, a := newRoot()
	return a.run(context.Background(), root, os.Args[1:])
}

func (a *app) run(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if a.span != nil {
		a.span.End(ctx, err)
	}
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := cli.LoadEnvFile(a.cfgFile); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, a.debug)
	if err != nil {
		return err
	}
	ctx, span := trace.Start(cmd.Context(), logger.WithComponent(log.ComponentApp), cmd.CommandPath())
	cmd.SetContext(ctx)
	a.span = span
	a.logger = span.Logger()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	a.backend = result
	a.logger.Debug("Backend ready", "backend", cfg.DataBackend)
	return nil
}

func (a *app) close() error {
	if a == nil || a.backend == nil || a.backend.Cleanup == nil {
		return nil
	}
	err := a.backend.Cleanup()
	a.backend = nil
	return err
}

func (a *app) service() *services.LedgerService {
	return a.backend.Service
}

// currentUser resolves --user to an account.
func (a *app) currentUser(ctx context.Context) (core.User, error) {
	if a.userEmail == "" {
		return core.User{}, errors.New("--user is required for this command")
	}
	u, err := a.service().AccountByEmail(ctx, a.userEmail)
	if err != nil {
		return core.User{}, fmt.Errorf("account %s: %w", a.userEmail, err)
	}
	return u, nil
}

// render prints v as JSON under --json, otherwise through text.
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	if a.jsonOut {
		return present.JSON(w, v)
	}
	return text(w)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", s)
	}
	return id, nil
}
