package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatrelay/internal/app"
	"github.com/vovakirdan/chatrelay/internal/config"
	applog "github.com/vovakirdan/chatrelay/internal/log"
)

var (
	configFile string
	overrides  config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chatrelay [port]",
	Short: "Line-based chat relay server",
	Long: "Accepts plain TCP clients (telnet, netcat) and relays registered users'\n" +
		"private and broadcast messages. The optional port overrides the configured address.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "path to config file (default ./config.yaml)")
	flags.StringVar(&overrides.AdminAddr, "admin-addr", "", "admin HTTP listen address, empty disables it")
	flags.IntVar(&overrides.Capacity, "capacity", 0, "maximum simultaneous connections")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
}

func run(cmd *cobra.Command, args []string) error {
	bootLog := applog.New("info", nil)

	cfg, path, err := config.Load(bootLog, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(args) == 1 {
		addr, err := config.PortAddr(args[0])
		if err != nil {
			return err
		}
		overrides.Addr = addr
	}
	cfg.UpdateFrom(overrides)

	logger := applog.New(cfg.LogLevel, nil)
	logger.Debug().Str("config", path).Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
