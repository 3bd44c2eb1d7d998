package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/scm/internal/config"
	"github.com/example/scm/internal/environment"
	"github.com/example/scm/internal/logging"
	"github.com/example/scm/internal/migration"
	"github.com/example/scm/internal/progress"
	"github.com/example/scm/internal/session"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	cfg    config.Config
	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      config.NewViper(),
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return bootstrapLogger(a.stderr)
	}
	return a.logger
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scm",
		Short:         "Apply versioned CQL migrations to ScyllaDB",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	defaults := session.DefaultOptions()
	flags := cmd.PersistentFlags()
	flags.String(config.KeyMigrationsDir, migration.DefaultDir, "directory holding the migration files")
	flags.String(config.KeyEnvDir, ".", "directory holding the <env>.scm.toml files")
	flags.String(config.KeyLogLevel, "info", "log level: debug, info, warn or error")
	flags.String(config.KeyLogFormat, logging.FormatText, "log format: text or json")
	flags.Duration(config.KeyConnectTimeout, defaults.ConnectTimeout, "time allowed to establish a session")
	flags.Duration(config.KeyTimeout, defaults.Timeout, "time allowed for a single statement")
	flags.String(config.KeyConsistency, defaults.Consistency, "CQL consistency level")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		a.createCommand(),
		a.applyCommand(),
		a.listCommand(),
		a.envCommand(),
	)
	return cmd
}

func (a *app) configure() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := logging.New(a.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) source() *migration.Source {
	return migration.NewSource(a.cfg.MigrationsDir)
}

func (a *app) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty migration file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := a.source()
			m, err := source.CreateTemplate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created migration file %s\n", source.Path(m.Identity))
			return nil
		},
	}
}

func (a *app) applyCommand() *cobra.Command {
	var envName string
	cmd := &cobra.Command{
		Use:   "apply [migration]",
		Short: "Apply every migration, or only the named one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.cfg.EnvironmentStore().Get(envName)
			if err != nil {
				if errors.Is(err, environment.ErrNotFound) {
					return fmt.Errorf("environment %s not found: %w", envName, err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Using environment %s\n", progress.Banner(envName, migration.RedactHost(env.Connection.Host)))

			source := a.source()
			var set migration.Set
			if len(args) == 1 {
				m, err := source.ResolveOne(args[0])
				if err != nil {
					return err
				}
				set = migration.Set{m}
			} else {
				if set, err = source.ListAll(); err != nil {
					return err
				}
			}

			logger := a.logger.With("env", envName)
			ctx := logging.ContextWithLogger(cmd.Context(), logger)
			dialer := session.NewDialer(a.cfg.SessionOptions(), logger)
			applier := migration.NewApplier(dialer, source, logger)
			return applier.Run(ctx, set, env.Descriptor(), a.sink(out, len(set)))
		},
	}
	cmd.Flags().StringVarP(&envName, "env", "e", environment.DefaultName, "environment to apply the migrations to")
	return cmd
}

// sink draws a progress bar on terminals and logs progress otherwise.
func (a *app) sink(out io.Writer, total int) migration.ProgressSink {
	if f, ok := out.(*os.File); ok && progress.Interactive(f) {
		return progress.NewBar(total, f)
	}
	return progress.NewLog(total, a.logger)
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.source().ListAll()
			if err != nil {
				return err
			}
			for _, m := range set {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func (a *app) envCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environment files",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List environment files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store := a.cfg.EnvironmentStore()
				names, err := store.List()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), store.Path(name))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create [name] [host]",
			Short: "Create an environment file",
			Args:  cobra.MaximumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, host := environment.DefaultName, environment.DefaultHost
				if len(args) > 0 {
					name = args[0]
				}
				if len(args) > 1 {
					host = args[1]
				}
				if _, err := a.cfg.EnvironmentStore().Create(name, host); err != nil {
					return fmt.Errorf("failed to create environment %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created environment %s\n", name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete an environment file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.EnvironmentStore().Delete(args[0]); err != nil {
					return fmt.Errorf("failed to delete environment %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted environment %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
