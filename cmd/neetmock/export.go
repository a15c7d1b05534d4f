package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/report"
	"github.com/pavelanni/neetmock/internal/store"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored test results as JSON or Excel",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db-driver", string(store.DriverSQLite), "Database driver (sqlite, postgres)")
	f.String("db", "neetmock.db", "SQLite path or Postgres DSN")
	f.String("format", "json", "Output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	format := strings.ToLower(v.GetString("format"))
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q (want json or xlsx)", format)
	}

	db, err := store.Open(cmd.Context(), store.Driver(v.GetString("db-driver")), v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	results, err := db.ExportAllResults()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	if results == nil {
		results = []model.StudentResult{}
	}
	export := model.ResultsExport{
		ExportedAt: time.Now().UTC(),
		Results:    results,
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "xlsx" {
		return report.WriteXLSX(w, export)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
