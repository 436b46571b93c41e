package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harun/leechbot/internal/config"
	"github.com/harun/leechbot/internal/daemon"
	"github.com/harun/leechbot/internal/logger"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the leechbot daemon",
	Long: `Start the leechbot daemon. It polls Telegram for updates and runs
until interrupted.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		return err
	}

	// Live log-level reload while the config file is edited in place.
	if cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, log.SetLevel, log.GetZerolog())
		if err != nil {
			log.Warn().Err(err).Msg("Config watcher unavailable")
		} else {
			defer watcher.Close()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	log.Info().Str("signal", received.String()).Msg("Shutdown signal received")

	return d.Stop()
}
