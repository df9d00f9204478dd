// Package cli implements the CLI adapter for omero-render.
// This package provides Cobra commands that delegate to the render use cases.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ome/omero-render/internal/adapters/in/cli/session"
	"github.com/ome/omero-render/internal/boundaries/in"
	"github.com/ome/omero-render/internal/config"
	"github.com/ome/omero-render/internal/domain"
	"github.com/ome/omero-render/internal/logging"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	sessionsPath string
	server       string
	port         int
	user         string
	group        string
	key          string
	password     string
	insecure     bool
	logLevel     string
	verbose      bool
}

// app carries the state built once per invocation by the root command.
type app struct {
	opts   globalOptions
	cfg    *config.Config
	log    zerolog.Logger
	closer io.Closer
	stderr io.Writer
	now    func() time.Time

	// connect opens the server connection; replaced in tests.
	connect func(ctx context.Context, a *app) (connection, error)
	// prompt asks for missing credentials.
	prompt prompter
}

// connection is an open server connection with its render service.
type connection interface {
	Service(stdout, stderr io.Writer) in.RenderService
	Close(ctx context.Context) error
}

func newApp() *app {
	return &app{
		log:     zerolog.Nop(),
		closer:  io.NopCloser(nil),
		stderr:  os.Stderr,
		now:     time.Now,
		connect: connectGateway,
		prompt:  surveyPrompter{},
	}
}

// NewRootCmd creates the root command for the omero-render CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "omero-render",
		Short: "Inspect, copy and apply OMERO rendering settings",
		Long: `omero-render reads and writes the rendering settings of images stored on an
OMERO server: channel colors, intensity windows, active channels, the default
Z/T plane and the greyscale or color model.

Objects are given as <Kind>:<id> where Kind is Project, Dataset, Screen,
Plate or Image. A bare id is an Image.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.closer.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Path to config file")
	flags.StringVar(&a.opts.sessionsPath, "sessions-file", "", "Path to the saved sessions file")
	flags.StringVarP(&a.opts.server, "server", "s", "", "OMERO.web server address")
	flags.IntVarP(&a.opts.port, "port", "p", 0, "OMERO.web server port")
	flags.StringVarP(&a.opts.user, "user", "u", "", "OMERO user name")
	flags.StringVarP(&a.opts.group, "group", "g", "", "OMERO group name or id")
	flags.StringVarP(&a.opts.key, "key", "k", "", "Session key to join")
	flags.StringVarP(&a.opts.password, "password", "w", "", "Password (prompted when omitted)")
	flags.BoolVar(&a.opts.insecure, "insecure", false, "Skip TLS certificate verification")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newInfoCmd(a))
	rootCmd.AddCommand(newGetCmd(a))
	rootCmd.AddCommand(newCopyCmd(a))
	rootCmd.AddCommand(newSetCmd(a))
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newTestCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newSessionsCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	a.stderr = cmd.ErrOrStderr()

	v, err := config.New(a.opts.configPath)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	if a.opts.verbose {
		v.Set("log.level", zerolog.DebugLevel.String())
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.Setup(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = logger
	a.closer = closer

	a.log.Debug().
		Str("config", v.ConfigFileUsed()).
		Str("level", cfg.Log.Level).
		Msg("Configuration loaded")
	return nil
}

// bindFlags maps the flags that mirror config keys onto viper so that a set
// flag wins over the environment and the config file.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"log.level":       "log-level",
		"server.insecure": "insecure",
	}
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// withService opens a connection, runs fn with its render service and closes
// the connection again.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc in.RenderService) error) error {
	ctx := a.log.WithContext(cmd.Context())

	conn, err := a.connect(ctx, a)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			a.log.Warn().Err(cerr).Msg("Failed to close connection")
		}
	}()

	return fn(ctx, conn.Service(cmd.OutOrStdout(), cmd.ErrOrStderr()))
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("omero-render %s\n", Version)
			cmd.Printf("Commit: %s\n", Commit)
			cmd.Printf("Build Date: %s\n", BuildDate)
		},
	}
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(version, commit, date string) {
	Version = version
	Commit = commit
	BuildDate = date
}

// Execute runs the CLI and returns the process exit code. Errors are
// printed to stderr; an ExitError selects the code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return run(ctx, cmd, stderr)
}

func run(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *domain.ExitError
	if errors.As(err, &exitErr) {
		_ = cliWriteLine(stderr, exitErr.Error())
	} else {
		_ = cliWriteLine(stderr, cliRenderError("Error: "+err.Error()))
	}
	return domain.ExitCode(err)
}

func (a *app) sessionsPath() string {
	if a.opts.sessionsPath != "" {
		return a.opts.sessionsPath
	}
	return session.DefaultPath()
}
