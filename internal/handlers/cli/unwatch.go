package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/satwatch/satwatch/internal/accountregistry"

	"github.com/urfave/cli/v3"
)

// unwatchCommand returns the maintenance command that removes a registered
// account directly, for chats that can no longer be reached.
//
// Usage example:
//
//	satwatch unwatch --chat-id 123456789
func unwatchCommand(registry accountregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Unregister the account of a Telegram chat.",
		Usage:       "Removes the stored wallet, cursor and pending messages of the chat.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "chat-id",
				Usage:    "Telegram chat ID of the account to remove",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			chatID, err := strconv.ParseInt(c.String("chat-id"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q: %w", c.String("chat-id"), err)
			}

			return registry.Unregister(ctx, chatID)
		},
	}
}
