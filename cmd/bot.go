package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/metrics"
	"github.com/abhisek/levelup/internal/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		if rt.cfg.Telegram.Token == "" {
			return errors.New("TELEGRAM_BOT_TOKEN (or telegram.token) is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		if addr := rt.cfg.Metrics.Addr; addr != "" {
			go func() {
				if err := m.Serve(ctx, addr, rt.log); err != nil {
					rt.log.Error("metrics endpoint stopped", zap.Error(err))
				}
			}()
		}

		svc, err := buildServices(ctx, cmd, rt, m)
		if err != nil {
			return err
		}
		defer svc.Close()

		b, err := telegram.NewBot(rt.cfg.Telegram.Token, svc.service, rt.log.Named("telegram"), m)
		if err != nil {
			return err
		}
		rt.log.Info("bot is starting")
		return b.Run(ctx)
	},
}
