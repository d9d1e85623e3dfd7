// Package cli implements the bota command line.
//
// The first positional argument is the endpoint hostname; the command and
// its arguments follow:
//
//	bota [global flags] <host> <command> [args] [flags]
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/fs/billy"
	"github.com/CESNET/bota/internal/progress"
)

// ErrMissingHost is returned when a command runs without an endpoint hostname.
var ErrMissingHost = errors.New("missing S3 endpoint hostname")

// App holds the dependencies of one invocation.
type App struct {
	Stdout    io.Writer
	Stderr    io.Writer
	FS        fs.Filesystem
	OpenStore StoreFactory
	Version   string

	host          string
	backend       string
	region        string
	pathStyle     bool
	logLevel      string
	progressStyle string
	logger        *slog.Logger
}

// NewApp returns an App wired to the process streams and the native filesystem.
func NewApp(version string) *App {
	return &App{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		FS:        billy.NewNativeFS(),
		OpenStore: OpenStore,
		Version:   version,
	}
}

// Run executes the command line args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	host, rest := splitHost(args)
	a.host = host

	root := a.rootCommand()
	root.SetArgs(rest)
	return root.ExecuteContext(ctx)
}

// reportedError is an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bota <S3_HOSTNAME> <command>",
		Short: "Manage buckets and objects in S3 compatible storage",
		Long: `Bota is a tool for managing objects in S3 compatible storage.
It allows for making and removing buckets and uploading, downloading
and removing objects from these buckets.

The S3 endpoint hostname comes first; it is reached over https unless
it starts with http:// or https://.`,
		Version:       a.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging()
		},
	}
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.backend, "backend", BackendAWS, "storage client backend (aws|minio)")
	flags.StringVar(&a.region, "region", "", "region to sign requests for (default from the AWS config chain)")
	flags.BoolVar(&a.pathStyle, "path-style", true, "address buckets by path instead of virtual host")
	flags.StringVar(&a.logLevel, "log-level", "warn", "diagnostic log level (debug|info|warn|error)")
	flags.StringVar(&a.progressStyle, "progress-style", progress.StyleLine, "progress renderer (line|bar)")

	root.AddCommand(
		a.lsbCommand(),
		a.lsCommand(),
		a.putCommand(),
		a.getCommand(),
		a.mbCommand(),
		a.rbCommand(),
		a.rmCommand(),
	)
	return root
}

func (a *App) setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
	}
	a.logger = slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// withStore opens the store for the current host and runs fn with it.
func (a *App) withStore(ctx context.Context, fn func(Store) error) error {
	if a.host == "" {
		return ErrMissingHost
	}

	store, err := a.OpenStore(ctx, StoreConfig{
		Backend:    a.backend,
		Endpoint:   NormalizeEndpoint(a.host),
		Region:     a.region,
		PathStyle:  a.pathStyle,
		Filesystem: a.FS,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

// flagsWithValue are the global flags that consume the next argument.
var flagsWithValue = map[string]bool{
	"--backend":        true,
	"--region":         true,
	"--log-level":      true,
	"--progress-style": true,
}

// splitHost removes the endpoint hostname, the first positional argument,
// from args. Global flags may precede it.
func splitHost(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return "", args
		case strings.HasPrefix(arg, "-"):
			if flagsWithValue[arg] {
				i++
			}
		case isCommand(arg):
			return "", args
		default:
			rest := make([]string, 0, len(args)-1)
			rest = append(rest, args[:i]...)
			rest = append(rest, args[i+1:]...)
			return arg, rest
		}
	}
	return "", args
}

func isCommand(arg string) bool {
	switch arg {
	case "lsb", "ls", "put", "get", "mb", "rb", "rm", "help", "completion":
		return true
	}
	return false
}
