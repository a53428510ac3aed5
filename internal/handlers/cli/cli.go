// Package cli is the operator-facing entrypoint: it starts the bot and its
// background schedules, and offers a maintenance command to drop an account
// without going through Telegram.
package cli

import (
	"context"
	"os"

	"github.com/satwatch/satwatch/internal/accountregistry"
	"github.com/satwatch/satwatch/internal/scheduler"

	"github.com/urfave/cli/v3"
)

// Listener consumes Telegram updates until the context is canceled. Satisfied
// by *bot.Bot from go-telegram/bot.
type Listener interface {
	Start(ctx context.Context)
}

// Run parses os.Args and executes the selected command.
func Run(ctx context.Context, listener Listener, sched scheduler.Service, registry accountregistry.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "satwatch",
		Description:           "Telegram bot that tracks Bitcoin wallet activity, network fees and token balances.",
		Usage:                 "satwatch [command] [flags]",
		Commands: []*cli.Command{
			startCommand(listener, sched),
			unwatchCommand(registry),
		},
	}

	return app.Run(ctx, os.Args)
}
