// Command viajjo-sheets-init prepares the export spreadsheet by writing the
// column header the worker appends under.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"viajjo/internal/cli"
	"viajjo/internal/config"
	gsheet "viajjo/internal/sheets/google"
)

func validate(c *config.Config) error {
	if c.GoogleSpreadsheetID == "" {
		return errors.New("GOOGLE_SPREADSHEET_ID is required")
	}
	return nil
}

func main() {
	cfg, logger := cli.LoadConfig("sheets-init", validate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	ref, err := client.WriteHeader(ctx)
	if err != nil {
		logger.Error("Failed to write sheet header", "error", err)
		os.Exit(1)
	}
	logger.Info("Sheet header written", "spreadsheet_id", cfg.GoogleSpreadsheetID, "range", ref)
}
