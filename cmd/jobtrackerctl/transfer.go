package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"jobtracker/internal/database"
	"jobtracker/internal/repository"
	"jobtracker/internal/transfer"

	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportFormat string
	importClean  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Snapshot every local table to JSON or YAML",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a snapshot into the active store",
	Long: "Load a snapshot into the active store. Users are inserted first and every owned row is re-pointed at the new user ids.\n" +
		"The report compares imported rows with what the store now holds. With --clean a failed import removes the users it inserted.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json or yaml (default from --out extension)")
	importCmd.Flags().BoolVar(&importClean, "clean", false, "Remove the users inserted so far when the import fails")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer database.Close(db)

	snap, err := transfer.Export(cmd.Context(), db, time.Now())
	if err != nil {
		return err
	}

	format := transfer.Format(exportFormat)
	if format == "" {
		format = transfer.FormatFor(exportOut)
	}
	if format != transfer.FormatJSON && format != transfer.FormatYAML {
		return fmt.Errorf("unknown format %q", exportFormat)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	if err := transfer.Write(w, snap, format); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d tables to %s\n", len(snap.Tables), exportOut)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	snap, err := transfer.Read(f, transfer.FormatFor(args[0]))
	if err != nil {
		return err
	}

	store, err := repository.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	importer, ok := store.(repository.RowImporter)
	if !ok {
		return errors.New("active store does not support raw imports")
	}
	res, importErr := transfer.Import(cmd.Context(), importer, snap)
	if importErr != nil && importClean && len(res.UserIDs) > 0 {
		removed, err := transfer.Clean(cmd.Context(), store.Users(), res)
		if err != nil {
			return errors.Join(importErr, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "removed %d partially imported users\n", removed)
	}

	present, err := transfer.Count(cmd.Context(), store, res)
	if err != nil {
		return errors.Join(importErr, fmt.Errorf("count imported rows: %w", err))
	}
	for _, table := range transfer.Tables {
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s imported=%d skipped=%d present=%d\n",
			table, res.Imported[table], res.Skipped[table], present[table])
	}
	return importErr
}
