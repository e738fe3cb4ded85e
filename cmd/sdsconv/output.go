package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sdsconv/internal/convert"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type reportJSON struct {
	convert.Report
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func renderReport(cmd *cobra.Command, report convert.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, reportJSON{Report: report, ElapsedSeconds: report.Elapsed.Seconds()})
	}
	rows := [][]string{
		{"Run", report.RunID},
		{"Input", report.InputDir},
		{"Archive", report.OutputDir},
		{"Workers", strconv.Itoa(report.Workers)},
		{"Files scanned", strconv.Itoa(report.Scan.Files)},
		{"Input size", humanize.Bytes(uint64(report.Scan.Bytes))},
		{"Saved", strconv.Itoa(report.Tally.Saved)},
		{"Load failed", strconv.Itoa(report.Tally.LoadFailed)},
		{"Save failed", strconv.Itoa(report.Tally.SaveFailed)},
	}
	if report.Tally.Canceled > 0 {
		rows = append(rows, []string{"Canceled", strconv.Itoa(report.Tally.Canceled)})
	}
	if report.RecordedPaths > 0 {
		rows = append(rows, []string{"Unwritable day files", fmt.Sprintf("%d (see %s)", report.RecordedPaths, report.ErrorsFile)})
	}
	rows = append(rows, []string{"Elapsed", report.Elapsed.Round(time.Millisecond).String()})
	fmt.Fprintln(cmd.OutOrStdout(), renderTable("Conversion", []string{"Field", "Value"}, rows))
	return nil
}

func renderScan(cmd *cobra.Command, input string, result convert.ScanResult, listFiles bool) {
	out := cmd.OutOrStdout()
	if listFiles && len(result.Files) > 0 {
		rows := make([][]string, 0, len(result.Files))
		for _, f := range result.Files {
			rows = append(rows, []string{f.Path, humanize.Bytes(uint64(f.Size))})
		}
		fmt.Fprintln(out, renderTable("", []string{"File", "Size"}, rows, 2))
	}
	fmt.Fprintln(out, renderTable("Scan", []string{"Input", "Files", "Size"}, [][]string{{
		input,
		strconv.Itoa(result.Summary.Files),
		humanize.Bytes(uint64(result.Summary.Bytes)),
	}}, 2, 3))
}
