package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string         // Path to custom config file (optional)
	cfg     *config.Config // Global reference to loaded configuration
)

// flagOverrides maps persistent flags to configuration keys.
var flagOverrides = map[string]string{
	"ws-addr":      "server.ws_addr",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"log-file":     "logging.file",
	"metrics-port": "metrics.port",
	"bus":          "bus.driver",
}

// rootCmd defines the main CLI command for the notifier
var rootCmd = &cobra.Command{
	Use:   "notifier",
	Short: "BookHive real-time notification server",
	Long:  `WebSocket fan-out server pushing BookHive notifications, circle messages and activity updates to connected clients.`,
	Example: `
  notifier start --ws-addr :8080 --log-level debug
  notifier start --config /etc/bookhive/notifier.yaml --bus redis
  notifier publish --audience user --user 42 --type notification_created --data '{"id":"n1","title":"New reply"}'`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for version command
		if cmd.Name() == "version" {
			return nil
		}

		overrides, err := collectOverrides(cmd)
		if err != nil {
			return err
		}

		cfg, err = config.Load(cfgFile, nil, overrides)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior: show help when no subcommand is provided
		if err := cmd.Help(); err != nil {
			fmt.Fprintf(os.Stderr, "Error displaying help: %v\n", err)
		}
	},
}

// collectOverrides turns explicitly set flags into config overrides so they
// win over file and environment values.
func collectOverrides(cmd *cobra.Command) (config.Overrides, error) {
	overrides := config.Overrides{}
	flags := cmd.Flags()
	for flag, key := range flagOverrides {
		if !flags.Changed(flag) {
			continue
		}
		if flag == "metrics-port" {
			port, err := flags.GetInt(flag)
			if err != nil {
				return nil, err
			}
			overrides[key] = port
			continue
		}
		value, err := flags.GetString(flag)
		if err != nil {
			return nil, err
		}
		overrides[key] = value
	}
	return overrides, nil
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Add persistent flags (inherited by all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to custom config file (optional)")

	rootCmd.PersistentFlags().String("ws-addr", "", "WebSocket listen address, e.g. :8080")
	rootCmd.PersistentFlags().String("log-level", "", "Logging level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "", "Log output format (console or json)")
	rootCmd.PersistentFlags().String("log-file", "", "Path to the log file")
	rootCmd.PersistentFlags().Int("metrics-port", 0, "Port for the Prometheus metrics server")
	rootCmd.PersistentFlags().String("bus", "", "Event bus driver (none, redis, nats, postgres)")

	rootCmd.AddCommand(newStartCmd(), newPublishCmd(), newVersionCmd())
}
