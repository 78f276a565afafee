// Package export writes the ledger and its summaries to an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"quaderno/internal/aggregate"
	"quaderno/internal/core"
	"quaderno/internal/metrics"
)

const (
	entriesSheet    = "entries"
	seriesSheet     = "daily"
	categoriesSheet = "categories"
)

// BuildWorkbook renders records and their summary into an XLSX document.
func BuildWorkbook(records []core.Record, summary aggregate.Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, records, summary); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWorkbook streams the workbook to w.
func WriteWorkbook(w io.Writer, records []core.Record, summary aggregate.Summary) (err error) {
	defer func() {
		if err != nil {
			metrics.IncExport(metrics.ResultError)
			return
		}
		metrics.IncExport(metrics.ResultSuccess)
	}()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(seriesSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", seriesSheet, err)
	}
	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", categoriesSheet, err)
	}

	if err := writeEntries(f, records); err != nil {
		return err
	}
	if err := writeSeries(f, summary); err != nil {
		return err
	}
	if err := writeCategories(f, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, records []core.Record) error {
	if err := f.SetSheetRow(entriesSheet, "A1", &[]any{"Occurred at", "Shown as", "Amount", "Note", "Category"}); err != nil {
		return fmt.Errorf("write entries header: %w", err)
	}
	for i, r := range records {
		cell := fmt.Sprintf("A%d", i+2)
		row := []any{r.OccurredAt.UTC(), r.DisplayTime, r.Amount.Float(), r.Note, r.Category()}
		if err := f.SetSheetRow(entriesSheet, cell, &row); err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}
	return nil
}

func writeSeries(f *excelize.File, summary aggregate.Summary) error {
	if err := f.SetSheetRow(seriesSheet, "A1", &[]any{"Day", "Total"}); err != nil {
		return fmt.Errorf("write daily header: %w", err)
	}
	for i, d := range summary.Series {
		row := []any{d.Label(), d.Total.Float()}
		if err := f.SetSheetRow(seriesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write day %s: %w", d.Label(), err)
		}
	}
	return nil
}

func writeCategories(f *excelize.File, summary aggregate.Summary) error {
	if err := f.SetSheetRow(categoriesSheet, "A1", &[]any{"Category", "Amount", "Share (%)"}); err != nil {
		return fmt.Errorf("write categories header: %w", err)
	}
	line := 2
	for _, c := range summary.Categories {
		row := []any{c.Name, c.Amount.Float(), c.Percentage}
		if err := f.SetSheetRow(categoriesSheet, fmt.Sprintf("A%d", line), &row); err != nil {
			return fmt.Errorf("write category %s: %w", c.Name, err)
		}
		line++
	}
	totals := [][]any{
		{"Today", summary.DailyTotal.Float()},
		{"All time", summary.AllTime.Float()},
	}
	for i, row := range totals {
		if err := f.SetSheetRow(categoriesSheet, fmt.Sprintf("A%d", line+1+i), &row); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}
	return nil
}
