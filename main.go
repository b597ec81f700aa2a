package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"riftwatch/internal/config"
	"riftwatch/internal/logger"
)

var (
	configPath string

	// run flag overrides, applied only when set
	listenAddr    string
	liveClientURL string
	snapshotDir   string
	temperature   float64
	pollInterval  time.Duration
	viewInterval  time.Duration
	alwaysInfer   bool
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "riftwatch",
	Short:         "Live match telemetry, gold estimates and win probability",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the live client and serve the overlay API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log, err := logger.New("riftwatch", cfg.Env)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		ctx := setupSignalHandler(log)

		app, err := NewApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer app.shutdown()

		return app.Run(ctx)
	},
}

// loadConfig applies the config file, environment and any flags the user
// actually set on cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	return config.Load(configPath, func(c *config.Config) {
		if flags.Changed("listen") {
			c.ListenAddr = listenAddr
		}
		if flags.Changed("live-client-url") {
			c.LiveClientURL = liveClientURL
		}
		if flags.Changed("snapshot-dir") {
			c.SnapshotDir = snapshotDir
		}
		if flags.Changed("temperature") {
			c.Temperature = temperature
		}
		if flags.Changed("poll-interval") {
			c.PollInterval = pollInterval
		}
		if flags.Changed("view-interval") {
			c.ViewInterval = viewInterval
		}
		if flags.Changed("always-infer") {
			c.AlwaysInfer = alwaysInfer
		}
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Float64Var(&temperature, "temperature", 1.5, "Softmax temperature applied to the model logits")

	runCmd.Flags().StringVar(&listenAddr, "listen", ":8000", "HTTP listen address")
	runCmd.Flags().StringVar(&liveClientURL, "live-client-url", "https://127.0.0.1:2999", "Live client data API base URL")
	runCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Directory for raw response snapshots (empty disables)")
	runCmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second, "Telemetry poll interval")
	runCmd.Flags().DurationVar(&viewInterval, "view-interval", 15*time.Second, "View rotation interval")
	runCmd.Flags().BoolVar(&alwaysInfer, "always-infer", false, "Run inference every cycle, not only on the win probability view")

	rootCmd.AddCommand(runCmd, predictCmd, replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
