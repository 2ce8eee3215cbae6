// Package cmd implements the command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-tracker-go/app"
	"github.com/soocke/pixel-tracker-go/config"
)

const defaultConfigPath = "config.yaml"

// WindowFactory builds the windowed frontend.
type WindowFactory func(title string, width, height int, cfgPath string, dark bool, logger *slog.Logger) app.Frontend

var (
	cfgFile   string
	debug     bool
	newWindow WindowFactory
)

// rootCmd runs the tracker when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:           "pixel-tracker",
	Short:         "Pixel Tracker",
	Long:          `Captures the screen around the cursor or screen center, detects targets with an ONNX or TFLite model and publishes the nearest one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTracker,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the detection loop",
	RunE:  runTracker,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect-model <path>",
	Short: "Print a model's tensor shapes and check them against the configured size",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectModel,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// A nil window factory forces headless mode.
func Execute(window WindowFactory) {
	newWindow = window
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging and resource monitor")
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().Bool("headless", false, "run without the status window")
		c.Flags().Bool("dark", false, "dark window theme")
	}
	inspectCmd.Flags().Int("size", 0, "expected input size (default from config)")
	inspectCmd.Flags().Int("slots", 0, "expected candidate slots (default from config)")
	initConfigCmd.Flags().Bool("force", false, "overwrite an existing file")
	rootCmd.AddCommand(runCmd, inspectCmd, initConfigCmd)
}

func loadConfig(logger *slog.Logger) (*config.Snapshot, *config.Loader) {
	loader := config.NewLoader(cfgFile)
	snap, err := loader.Load()
	if err != nil {
		logger.Warn("using default configuration", "path", cfgFile, "error", err)
	}
	if debug {
		snap.Debug = true
	}
	return snap, loader
}

func runTracker(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(os.Stdout, level)
	snap, loader := loadConfig(logger)
	if snap.Debug {
		level = slog.LevelDebug
		logger = NewLogger(os.Stdout, level)
	}

	watch := loader
	if _, err := os.Stat(cfgFile); err != nil {
		watch = nil
	}

	headless, _ := cmd.Flags().GetBool("headless")
	dark, _ := cmd.Flags().GetBool("dark")
	var frontend app.Frontend
	if headless || newWindow == nil {
		frontend = app.NewHeadless(logger)
	} else {
		frontend = newWindow("Pixel Tracker", 520, 620, cfgFile, dark, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, app.Options{
		Store:    config.NewStore(snap),
		Loader:   watch,
		Frontend: frontend,
		Logger:   logger,
	})
}
