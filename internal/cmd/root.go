// Package cmd implements the courier command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/courier/internal/app"
	"github.com/dshills/courier/internal/config"
	"github.com/dshills/courier/internal/logging"
)

var (
	flagConfig      string
	flagPlugins     []string
	flagPluginDirs  []string
	flagStrict      bool
	flagWatch       bool
	flagLogLevel    string
	flagLogJSON     bool
	flagTrace       bool
	flagTraceFilter string
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Message routing kernel for plugin-hosted applications",
	Long: `Courier runs a mailbox-based message bus and hosts Lua and native
plugins as bus endpoints. Envelopes route by 32-bit address with
per-endpoint bounded queues and fault-isolated delivery.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagConfig, "config", "c", "", "config file (TOML)")
	flags.StringArrayVarP(&flagPlugins, "plugin", "p", nil, "plugin directory to load (repeatable)")
	flags.StringArrayVar(&flagPluginDirs, "plugin-dir", nil, "directory scanned for plugins (repeatable)")
	flags.BoolVar(&flagStrict, "strict", false, "exit non-zero if any plugin fails to load")
	flags.BoolVar(&flagWatch, "watch", false, "hot reload plugins on directory changes")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.BoolVar(&flagLogJSON, "log-json", false, "emit JSON logs")
	flags.BoolVar(&flagTrace, "trace", false, "log every accepted envelope")
	flags.StringVar(&flagTraceFilter, "trace-filter", "", "glob over opcode names to trace")
}

// buildConfig layers CLI flags over file and environment settings.
func buildConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	cfg.Plugins.Paths = append(cfg.Plugins.Paths, flagPlugins...)
	cfg.Plugins.Dirs = append(cfg.Plugins.Dirs, flagPluginDirs...)
	if flagStrict {
		cfg.Plugins.Strict = true
	}
	if flagWatch {
		cfg.Plugins.Watch = true
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagLogJSON {
		cfg.Logging.JSON = true
	}
	if flagTrace {
		cfg.Logging.Trace = true
	}
	if flagTraceFilter != "" {
		cfg.Logging.TraceFilter = flagTraceFilter
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.JSON,
		Writer: os.Stderr,
	})

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	if err := a.LoadPlugins(); err != nil {
		return fmt.Errorf("loading plugins: %w", err)
	}
	if cfg.Plugins.Watch {
		if err := a.StartWatcher(); err != nil {
			return fmt.Errorf("starting plugin watcher: %w", err)
		}
	}
	return a.Run(context.Background())
}
