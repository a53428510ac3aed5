package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/satwatch/satwatch/internal/scheduler"

	"github.com/urfave/cli/v3"
)

// startCommand returns the command that runs the bot: background schedules
// plus the Telegram update loop, until SIGINT or SIGTERM.
func startCommand(listener Listener, sched scheduler.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts transaction tracking, fee alerts and the Telegram command loop.",
		Usage:       "Runs the bot until Ctrl+C or a termination signal.",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Close()

			// Blocks until the context is canceled.
			listener.Start(ctx)
			return nil
		},
	}
}
