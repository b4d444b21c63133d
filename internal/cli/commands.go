package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"powerbill/internal/auth"
	"powerbill/internal/core"
	apihttp "powerbill/internal/http"
	"powerbill/internal/log"
	"powerbill/internal/shell"
	"powerbill/internal/tariff"
)

const shutdownTimeout = 10 * time.Second

// ─── shell ──────────────────────────────────────────────────────────────────

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive billing menus (default)",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}
}

func runShell(cmd *cobra.Command, _ []string) error {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLoggerTo(os.Stderr, cfg.LogLevel)

	ctx, stop := SignalContext(logger)
	defer stop()

	rt, err := NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRuntime(logger, rt)

	opts := shell.Options{
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		Logger: logger,
	}
	if opts.In == os.Stdin {
		opts.ReadPassword = shell.TerminalPasswordReader(os.Stdin)
	}
	sh := shell.New(rt.Billing, rt.Tariff, rt.Auth, opts)
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ─── serve ──────────────────────────────────────────────────────────────────

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and run the due-date reminder scanner",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg.LogLevel)

	ctx, stop := SignalContext(logger)
	defer stop()

	rt, err := NewRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRuntime(logger, rt)

	srv := apihttp.NewServer(":"+cfg.Port, apihttp.Deps{
		Billing: rt.Billing,
		Tariff:  rt.Tariff,
		Auth:    rt.Auth,
		Logger:  logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening",
			"addr", srv.Addr,
			"backend", cfg.DataBackend,
			"events", cfg.EventsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if err := rt.Reminder.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			srv.Shutdown(shutdownCtx),
			rt.Reminder.Stop(shutdownCtx),
		)
	})

	return g.Wait()
}

// ─── tariff ─────────────────────────────────────────────────────────────────

func newTariffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tariff",
		Short: "Quote electricity charges without creating a bill",
	}
	cmd.PersistentFlags().String("file", os.Getenv("TARIFF_FILE"), "TOML tariff file (default: built-in rates)")

	cmd.AddCommand(&cobra.Command{
		Use:   "domestic UNITS",
		Short: "Quote a domestic bill; every unit is billed at the tier rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := tariffFromFlags(cmd)
			if err != nil {
				return err
			}
			units, err := parseUnits(args)
			if err != nil {
				return err
			}
			rate, err := schedule.DomesticRate(units[0])
			if err != nil {
				return err
			}
			charge, err := schedule.DomesticCharge(units[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d units at %s/unit\nTotal bill = %s\n",
				units[0], core.FormatRupees(rate), core.FormatRupees(charge))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "commercial UNITS...",
		Short: "Quote a commercial bill for a roster of people",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := tariffFromFlags(cmd)
			if err != nil {
				return err
			}
			units, err := parseUnits(args)
			if err != nil {
				return err
			}
			roster, err := schedule.CommercialCharge(units)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total bill = %s\n", core.FormatRupees(roster.Total))
			for _, p := range roster.People {
				fmt.Fprintf(out, "Person %d: %d units, %s\n", p.Person, p.Units, core.FormatRupees(p.Charge))
			}
			fmt.Fprintf(out, "Person %d used the most units: %d units\n", roster.Heaviest.Person, roster.Heaviest.Units)
			fmt.Fprintf(out, "Person %d used the least units: %d units\n", roster.Lightest.Person, roster.Lightest.Units)
			return nil
		},
	})

	return cmd
}

func tariffFromFlags(cmd *cobra.Command) (tariff.Schedule, error) {
	path, _ := cmd.Flags().GetString("file")
	return LoadTariff(path)
}

func parseUnits(args []string) ([]int, error) {
	units := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a whole number", core.ErrInvalidUnits, a)
		}
		units = append(units, n)
	}
	return units, nil
}

// ─── hash-password ──────────────────────────────────────────────────────────

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Long: `Print a bcrypt hash for ADMIN_PASSWORD_HASH. Without an argument the
password is read from the terminal without echo, or from one line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				p, err := readSecret(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readSecret(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func closeRuntime(logger *log.Logger, rt *Runtime) {
	if err := rt.Close(); err != nil {
		logger.Error("Failed to release resources", log.FieldError, err)
	}
}
