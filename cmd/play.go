package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/app"
	"github.com/abhisek/levelup/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take the quiz in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		userID, _ := cmd.Flags().GetInt64("user")
		svc, err := buildServices(cmd.Context(), cmd, rt, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		return runConsole(cmd.Context(), svc.service, userID, cmd.InOrStdin(), cmd.OutOrStdout(), rt.log)
	},
}

func init() {
	playCmd.Flags().Int64("user", 1, "User id to record progress under")
}

// console is the subset of app.Service the console loop drives.
type console interface {
	Handle(ctx context.Context, userID int64, text string) ([]session.Reply, error)
}

var _ console = (*app.Service)(nil)

// runConsole feeds lines from in to svc until EOF or /quit and prints the
// replies to out.
func runConsole(ctx context.Context, svc console, userID int64, in io.Reader, out io.Writer, log *zap.Logger) error {
	printReplies(out, []session.Reply{{Text: app.MsgHelp + "\n/quit - Exit"}})

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "/quit" {
			return nil
		}
		if line == "" {
			continue
		}

		replies, err := svc.Handle(ctx, userID, line)
		if err != nil {
			log.Warn("handle input", zap.Error(err))
		}
		printReplies(out, replies)
	}
}

func printReplies(out io.Writer, replies []session.Reply) {
	for _, r := range replies {
		fmt.Fprintln(out, r.Text)
		if len(r.Choices) > 0 {
			fmt.Fprintf(out, "[%s]\n", strings.Join(r.Choices, "] ["))
		}
		fmt.Fprintln(out)
	}
}
