package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/app"
	"github.com/abhisek/levelup/internal/session"
)

var progressCmd = &cobra.Command{
	Use:   "progress <user-id>",
	Short: "Show a learner's saved progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}

		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		ctx := cmd.Context()
		progress, closeStore, err := openProgress(ctx, cmd, rt)
		if err != nil {
			return err
		}
		defer closeStore()

		svc := app.NewService(session.NewEngine(session.Config{Progress: progress, Logger: rt.log}), progress, nil, rt.log)
		for _, cmdText := range []string{"/progress", "/lessons"} {
			replies, err := svc.Handle(ctx, userID, cmdText)
			if err != nil {
				return err
			}
			printReplies(cmd.OutOrStdout(), replies)
		}
		return nil
	},
}
