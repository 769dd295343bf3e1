package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/bank"
	"github.com/abhisek/levelup/internal/ingest"
	"github.com/abhisek/levelup/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Convert extracted table rows into a question bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")
		skipHeader, _ := cmd.Flags().GetBool("skip-header")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = rt.cfg.Bank.Path
		}
		if format == "" {
			format = formatFromExt(input)
		}

		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		rows, unreadable, err := readRows(f, format, skipHeader)
		if err != nil {
			return err
		}
		for _, re := range unreadable {
			rt.log.Warn("row unreadable", zap.Int("row", re.Row), zap.Error(re.Err))
		}

		res := ingest.Normalize(rows)
		for _, re := range res.Rejected {
			rt.log.Warn("row rejected", zap.Int("row", re.Row), zap.Error(re.Err))
		}
		invalid := 0
		for _, q := range res.Questions {
			if !q.Valid() {
				invalid++
				rt.log.Warn("question has no usable answer marker", zap.String("id", q.ID))
			}
		}

		if err := writeBank(output, res.Questions); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%d questions written to %s (%d continuation rows merged, %d orphans dropped, %d rows rejected, %d without a valid answer)\n",
			len(res.Questions), output, res.Continuations, res.Orphans, len(unreadable)+len(res.Rejected), invalid)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("input", "", "Rows extracted from the source document (.json or .csv)")
	ingestCmd.Flags().String("format", "", "Input format: json or csv (default from file extension)")
	ingestCmd.Flags().Bool("skip-header", true, "Skip the first row of every table")
	ingestCmd.Flags().String("output", "", "Question bank to write (default bank.path)")
	_ = ingestCmd.MarkFlagRequired("input")
}

func formatFromExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "json"
}

// readRows returns the data rows of r and the JSON rows that could not be
// read as text cells.
func readRows(r io.Reader, format string, skipHeader bool) ([]ingest.Row, []ingest.RowError, error) {
	switch format {
	case "json":
		return ingest.ReadTablesJSON(r, skipHeader)
	case "csv":
		rows, err := ingest.ReadCSV(r, skipHeader)
		return rows, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown format %q (want json or csv)", format)
	}
}

func writeBank(path string, questions []bank.Question) error {
	if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := bank.WriteJSON(f, questions); err != nil {
		f.Close()
		return fmt.Errorf("write bank: %w", err)
	}
	return f.Close()
}
