package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfin/quill/internal/model"
)

func TestReadTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txns.csv")
	data := "id,date,description,amount,currency\n" +
		"t1,2026-01-15,AH 1403 AMSTERDAM,-23.45,EUR\n" +
		"t2,2026-01-16,STARBUCKS COFFEE 123,-4.50,EUR\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	txns, err := readTransactions(path)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, "AH 1403 AMSTERDAM", txns[0].Description)
	assert.InDelta(t, -23.45, txns[0].Amount, 1e-9)
	assert.Equal(t, 2026, txns[0].Date.Year())
	assert.Equal(t, "EUR", txns[1].Currency)
}

func TestReadTransactionsBadRows(t *testing.T) {
	dir := t.TempDir()

	badDate := filepath.Join(dir, "bad_date.csv")
	require.NoError(t, os.WriteFile(badDate, []byte(
		"id,date,description,amount,currency\nt1,15-01-2026,AH,-1.00,EUR\n"), 0o600))
	_, err := readTransactions(badDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date")

	badAmount := filepath.Join(dir, "bad_amount.csv")
	require.NoError(t, os.WriteFile(badAmount, []byte(
		"id,date,description,amount,currency\nt1,2026-01-15,AH,abc,EUR\n"), 0o600))
	_, err = readTransactions(badAmount)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad amount")
}

func TestWriteResults(t *testing.T) {
	rows := []model.CategorizedTransaction{
		{
			Transaction: model.Transaction{
				ID:          "t1",
				Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
				Description: "AH 1403 AMSTERDAM",
			},
			MerchantClean: "albert heijn",
			Entity:        "Albert Heijn",
			Category:      "Groceries",
			Source:        model.SourceExactMatch,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "", rows))

	want := "id,date,description,merchant,entity,category,source\n" +
		"t1,2026-01-15,AH 1403 AMSTERDAM,albert heijn,Albert Heijn,Groceries,EXACT\n"
	assert.Equal(t, want, buf.String())
}
