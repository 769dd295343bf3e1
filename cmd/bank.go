package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/bank"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect the question bank",
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions (optionally filtered by section)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		section, _ := cmd.Flags().GetString("section")

		b, err := bank.Load(rt.cfg.Bank.Path, rt.log)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-5s  %-8s  %-20s  %-7s  %s\n", "#", "ID", "Section", "Answer", "Question")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		shown, invalid := 0, 0
		for i, q := range b.Questions() {
			if section != "" && !strings.EqualFold(q.SectionOrDefault(), section) {
				continue
			}
			shown++
			answer := q.Correct.Text
			if q.IsMultipleChoice() {
				answer = fmt.Sprint(q.Correct.Index + 1)
				if !q.Valid() {
					answer = "?"
					invalid++
				}
			}
			fmt.Fprintf(out, "%-5d  %-8s  %-20s  %-7s  %s\n",
				i+1, truncate(q.ID, 8), truncate(q.SectionOrDefault(), 20), truncate(answer, 7), truncate(q.Question, 50))
		}

		fmt.Fprintf(out, "\n%d questions", shown)
		if invalid > 0 {
			fmt.Fprintf(out, ", %d without a valid answer", invalid)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	bankListCmd.Flags().String("section", "", "Only list questions of this section")

	bankCmd.AddCommand(bankListCmd)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
