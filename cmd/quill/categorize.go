package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillfin/quill/internal/cli"
	"github.com/quillfin/quill/internal/engine"
	"github.com/quillfin/quill/internal/model"
)

const csvDateLayout = "2006-01-02"

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize <transactions.csv>",
		Short: "Categorize a CSV of normalized transactions",
		Long: `Categorize reads normalized transactions (id, date, description,
amount, currency), resolves each description to a canonical merchant,
and writes categorized rows back out as CSV.

Unknown merchants prompt interactively unless --defer is set, in which
case they are parked in a session for 'quill resume'.`,
		Args: cobra.ExactArgs(1),
		RunE: runCategorize,
	}

	cmd.Flags().StringP("output", "o", "", "output CSV path (default: stdout)")
	cmd.Flags().Int("batch-size", 0, "tokenizer batch size")
	cmd.Flags().Int("concurrency", 0, "concurrent tokenizer batches")
	cmd.Flags().Bool("auto-accept", false, "accept fuzzy suggestions without prompting")
	cmd.Flags().Bool("defer", false, "park unknown merchants in a session instead of prompting")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	txns, err := readTransactions(args[0])
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	book, err := initPhonebook()
	if err != nil {
		return fmt.Errorf("failed to load phonebook: %w", err)
	}

	deferred, _ := cmd.Flags().GetBool("defer")
	var prompter engine.Prompter
	if !deferred {
		p := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		p.SetTotal(len(txns))
		prompter = p
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	autoAccept, _ := cmd.Flags().GetBool("auto-accept")

	eng, err := buildEngine(ctx, store, book, prompter, engine.Config{
		BatchSize:             batchSize,
		Concurrency:           concurrency,
		AutoAcceptSuggestions: autoAccept,
	})
	if err != nil {
		return err
	}

	result, err := eng.Run(ctx, txns)
	if err != nil {
		return fmt.Errorf("categorization run failed: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeResults(cmd.OutOrStdout(), output, result.Transactions); err != nil {
		return err
	}

	if result.SessionID != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf(
			"%d transactions need a decision; resume with: quill resume %s",
			len(result.Pending), result.SessionID)))
	}
	return nil
}

// readTransactions parses the fixed input format: a header row, then
// id, date (2006-01-02), description, amount, currency.
func readTransactions(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	var txns []model.Transaction
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		date, err := time.Parse(csvDateLayout, record[1])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", path, line, record[1], err)
		}
		amount, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad amount %q: %w", path, line, record[3], err)
		}

		txns = append(txns, model.Transaction{
			ID:          record[0],
			Date:        date,
			Description: record[2],
			Amount:      amount,
			Currency:    record[4],
		})
	}
	return txns, nil
}

func writeResults(stdout io.Writer, path string, rows []model.CategorizedTransaction) error {
	out := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "date", "description", "merchant", "entity", "category", "source"}); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	for _, row := range rows {
		var date string
		if !row.Date.IsZero() {
			date = row.Date.Format(csvDateLayout)
		}
		record := []string{
			row.ID,
			date,
			row.Description,
			row.MerchantClean,
			row.Entity,
			row.Category,
			string(row.Source),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
