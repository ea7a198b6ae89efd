// Command coverage computes cellular coverage rasters from tower files and
// serves the coverage API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDir string
	verbose   bool
	appConfig AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Cellular coverage rasters from Okumura-Hata and sector antenna patterns",
	Long: `coverage samples a latitude/longitude grid around each tower, evaluates
the Okumura-Hata path loss and the sector antenna gains, and keeps the cells
received above the tower sensitivity.

Settings come from config.{yaml,json} in --config-dir, COVERAGE_* environment
variables (a .env file is loaded first) and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ReadAppConfig(viper.GetViper(), configDir)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDir, "config-dir", ".", "directory holding config.yaml or config.json")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Bool("trace", false, "print OpenTelemetry spans to stderr")
	flags.Int("workers", 0, "concurrent towers (0 uses all CPUs)")

	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("trace", flags.Lookup("trace"))
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))

	rootCmd.AddCommand(computeCmd, serveCmd)
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	switch format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unsupported log format %q", format)
	}
	log.SetOutput(os.Stderr)
	return nil
}

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
