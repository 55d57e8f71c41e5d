// Package cli is the musicworks command line front end. Commands call the
// state stores and print plain text to stdout; logs go to stderr.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"musicworks/internal/app"
	"musicworks/internal/config"
	"musicworks/internal/util"
)

// env is shared by every command of one invocation. app is built lazily in
// the root PersistentPreRunE.
type env struct {
	configPath string
	logLevel   string
	logFormat  string

	// newApp lets tests inject an app built around a test server.
	newApp func(cfg config.FileConfig) (*app.App, error)
	app    *app.App
}

func (e *env) load() error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	if e.logFormat != "" {
		cfg.LogFormat = e.logFormat
	}
	util.InitLogger(cfg.LogLevel, cfg.LogFormat)

	build := e.newApp
	if build == nil {
		build = func(cfg config.FileConfig) (*app.App, error) {
			return app.New(app.Config{File: cfg})
		}
	}
	a, err := build(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	e.app = a
	return nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{})
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "musicworks",
		Short:         "Register musical works and manage their payments and rights",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (default $MUSICWORKS_CONFIG or ~/.config/musicworks/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&e.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(
		newAuthCommand(e),
		newWorksCommand(e),
		newPaymentsCommand(e),
		newAuthorizationCommand(e),
		newAdminCommand(e),
	)
	return rootCmd
}

// Execute runs the root command and closes the app even when a command fails.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return execute(ctx, &env{}, args, stdin, stdout, stderr)
}

func execute(ctx context.Context, e *env, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, e.close())
}
