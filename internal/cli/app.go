// Package cli implements the edutrack command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alvinp540/edutrack/api"
	"github.com/alvinp540/edutrack/internal/backend"
	"github.com/alvinp540/edutrack/internal/config"
	"github.com/alvinp540/edutrack/internal/logging"
	"github.com/alvinp540/edutrack/internal/metrics"
	"github.com/alvinp540/edutrack/school"
	"github.com/alvinp540/edutrack/store"
)

// OpenFunc opens the configured backend.
type OpenFunc func(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Backend, error)

// Options configures New. Zero values use the process defaults.
type Options struct {
	Open OpenFunc
	Out  io.Writer
	Err  io.Writer
}

type app struct {
	open OpenFunc
	out  io.Writer
	err  io.Writer

	configFile string
	envFile    string
	output     string
	logLevel   string
}

// New returns the root edutrack command.
func New(opts Options) *cobra.Command {
	a := &app{open: opts.Open, out: opts.Out, err: opts.Err}
	if a.open == nil {
		a.open = backend.Open
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.err == nil {
		a.err = os.Stderr
	}

	root := &cobra.Command{
		Use:   "edutrack",
		Short: "Manage a school's teachers, classes, students, attendance, exams and results",
		Long: `edutrack keeps school records in MongoDB, DynamoDB or an embedded Badger
database. Every command that takes a reference accepts either a record id or
its natural key: employee number, class name, admission number, subject code
or exam name. Attendance records also accept "<student>|<YYYY-MM-DD>".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.err)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (JSON or YAML)")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env)")
	flags.StringVarP(&a.output, "output", "o", formatTable, "output format: table, json or yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		entityCommand(a, teachers),
		entityCommand(a, classes),
		entityCommand(a, students),
		entityCommand(a, subjects),
		entityCommand(a, exams),
		entityCommand(a, attendance),
		entityCommand(a, results),
		a.reportCommand(),
		a.statsCommand(),
		a.serveCommand(),
	)
	return root
}

// Execute runs the root command with args and returns the process exit code.
func Execute(ctx context.Context, opts Options, args []string) int {
	root := New(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), errorStyle.Render("error:"), err)
		return 1
	}
	return 0
}

// setup loads the configuration and builds the logger.
func (a *app) setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return config.Config{}, nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(a.err, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// withService opens the backend, runs fn and closes the backend.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *school.Service) error) error {
	if _, err := newPrinter(a.out, a.output); err != nil {
		return err
	}
	cfg, logger, err := a.setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	b, err := a.open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(context.Background()); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}()

	return fn(ctx, school.NewService(b, school.WithLogger(logger)))
}

func (a *app) print(v any) error {
	p, err := newPrinter(a.out, a.output)
	if err != nil {
		return err
	}
	return p.print(v)
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of records in every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				stats, err := svc.Stats(ctx)
				if err != nil {
					return err
				}
				return a.print(stats)
			})
		},
	}
}

func (a *app) reportCommand() *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Derived reports: attendance summaries, transcripts and class rosters",
	}
	report.AddCommand(
		reportOf(a, "attendance STUDENT", "Summarize a student's attendance", (*school.Service).AttendanceSummary),
		reportOf(a, "transcript STUDENT", "Show a student's results with grades and average", (*school.Service).Transcript),
		reportOf(a, "roster CLASS", "List the students of a class", (*school.Service).Roster),
	)
	return report
}

func reportOf[T any](a *app, use, short string, fn func(*school.Service, context.Context, string) (T, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				v, err := fn(svc, ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(v)
			})
		},
	}
}

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTP.Addr
			}
			ctx := cmd.Context()

			b, err := a.open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := b.Close(context.Background()); err != nil {
					logger.Warn("failed to close store", "error", err)
				}
			}()

			reg, m := metrics.NewRegistry()
			svc := school.NewService(metrics.Instrument(b, m),
				school.WithLogger(logger),
				school.WithResolveObserver(m.ObserveResolution),
			)
			gin.SetMode(gin.ReleaseMode)
			router := api.NewRouter(svc, api.Options{Gatherer: reg, Logger: logger})
			return api.Serve(ctx, addr, router, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from http.addr)")
	return cmd
}
