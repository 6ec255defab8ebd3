// corehost loads the CoreCLR runtime from a directory, calls one static
// managed method that returns a string, prints the result and shuts the
// runtime down.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coinbase/clrhost-go/pkg/clrhost"
	"github.com/coinbase/clrhost-go/pkg/clrhost/logging"
)

func main() {
	os.Exit(execute(newRootCmd(clrhost.Config{}), os.Args[1:]))
}

// app carries the state shared by the root command and its subcommands.
type app struct {
	// platform is the loader wiring handed to every Host. The zero value
	// selects the native implementation.
	platform clrhost.Config

	flags      Config
	configPath string
	verbose    bool
	logger     *slog.Logger
}

func newRootCmd(platform clrhost.Config) *cobra.Command {
	a := &app{platform: platform, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cmd := &cobra.Command{
		Use:           "corehost",
		Short:         "Host the CoreCLR runtime and call one managed method",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resolveConfig(cmd)
			if err != nil {
				return err
			}
			return a.run(cmd, cfg)
		},
	}

	bindRunFlags(cmd, &a.flags)
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $"+configEnv+" or ~/.clrhost/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(buildTPACmd(a), buildVersionCmd())
	return cmd
}

// execute runs cmd and maps the outcome to a process exit status. Failures
// are reported on stdout as "Error: <message>".
func execute(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if path, ok := resolveConfigPath(a.configPath); ok {
		fileCfg, err := loadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, fileCfg)
		a.logger.Debug("config loaded", "path", path)
	}
	return applyFlagOverrides(cmd, cfg, a.flags), nil
}

func (a *app) hostConfig(cfg Config) clrhost.Config {
	hc := a.platform
	hc.HostName = cfg.HostName
	hc.StrictScan = cfg.StrictScan
	hc.Properties = cfg.Properties
	if hc.Logger == nil {
		hc.Logger = logging.New(a.logger)
	}
	return hc
}

// run is the demonstration flow: initialize, resolve the delegate, print what
// it returns, release the returned block, shut down. The first failure ends
// the flow; whatever the host still holds is released before returning,
// except after a failed shutdown, which is not retried.
func (a *app) run(cmd *cobra.Command, cfg Config) error {
	ctx := cmd.Context()
	host := clrhost.New(a.hostConfig(cfg))

	shutdownAttempted := false
	defer func() {
		if shutdownAttempted || host.State() == clrhost.StateUnloaded {
			return
		}
		if err := host.Close(); err != nil {
			a.logger.DebugContext(ctx, "host cleanup failed", "error", err)
		}
	}()

	if err := host.Initialize(cfg.ExePath, cfg.RuntimeDir, cfg.AppDir); err != nil {
		return err
	}

	d, err := host.CreateDelegate(cfg.Assembly, cfg.Type, cfg.Method)
	if err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "invoking delegate", "delegate", d.String())

	err = host.WithBlock(d, func(b *clrhost.UnmanagedBlock) error {
		s, err := b.Text()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Result: %s\n", s)
		return nil
	})
	if err != nil {
		return err
	}

	shutdownAttempted = true
	exitCode, err := host.Shutdown()
	if err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "runtime exited", "exit_code", exitCode)
	return nil
}
