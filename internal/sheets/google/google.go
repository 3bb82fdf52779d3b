// Package google appends exported expenses to a Google Sheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"viajjo/internal/core"
	"viajjo/internal/resilience"
	ports "viajjo/internal/sheets"
)

var _ ports.ExpenseExporter = (*Client)(nil)

// Options configures the client. One of CredentialsJSON or CredentialsFile
// is required unless ClientOptions supplies authentication.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	// ClientOptions are passed to the Sheets service as-is.
	ClientOptions []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	breaker       *gobreaker.CircuitBreaker
}

// New creates a Sheets client.
func New(ctx context.Context, opts Options) (*Client, error) {
	opts.SpreadsheetID = strings.TrimSpace(opts.SpreadsheetID)
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(opts.SheetName) == "" {
		opts.SheetName = "Despesas"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
		breaker:       resilience.NewCircuitBreaker("google-sheets", resilience.BreakerSettings{Timeout: 30 * time.Second}),
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	if len(opts.ClientOptions) > 0 {
		clientOpts = append(clientOpts, opts.ClientOptions...)
	} else {
		credentialsJSON, err := loadCredentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithHTTPClient(newHTTPClientWithPooling()))
	}

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return service, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling keeps connections to the Sheets API alive
// between appends.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// appendRange covers the six exported columns.
func (c *Client) appendRange() string {
	return fmt.Sprintf("%s!A:%c", c.sheetName, 'A'+len(ports.Header)-1)
}

// AppendExpense appends one row after the last row of the table and
// returns the updated range.
func (c *Client) AppendExpense(ctx context.Context, email string, e core.Expense) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if email == "" {
		return "", fmt.Errorf("append expense %s: email is required", e.ID)
	}

	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(email, e)}}
	out, err := c.breaker.Execute(func() (any, error) {
		return c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.appendRange(), vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	})
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	resp := out.(*gsheet.AppendValuesResponse)
	ref := c.appendRange()
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// WriteHeader writes the column titles to the first row of the sheet,
// replacing whatever is there.
func (c *Client) WriteHeader(ctx context.Context) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	headerRange := fmt.Sprintf("%s!A1:%c1", c.sheetName, 'A'+len(ports.Header)-1)
	row := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		row[i] = h
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange, &gsheet.ValueRange{Values: [][]any{row}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
	})
	if err != nil {
		return "", fmt.Errorf("write header to sheet %s: %w", c.sheetName, err)
	}
	if resp := out.(*gsheet.UpdateValuesResponse); resp.UpdatedRange != "" {
		return resp.UpdatedRange, nil
	}
	return headerRange, nil
}
