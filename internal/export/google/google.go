package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/core"
	ports "tally/internal/export"
)

// Client appends ledger transactions to a Google Sheets statement. One
// row per transaction; the sheet is append-only, edits export a new
// row carrying the same transaction id.
type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	statementSheet string
}

var _ ports.StatementWriter = (*Client)(nil)

// Config carries the spreadsheet coordinates plus service account
// credentials, either inline JSON or a file path.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Statement"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:            svc,
		spreadsheetID:  cfg.SpreadsheetID,
		statementSheet: sheet,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentials []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentials = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes one statement row:
// date | wallet | destination | kind | category | amount | description | actor | id
func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := StatementRow(tx)
	rng := fmt.Sprintf("%s!A:I", c.statementSheet)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.statementSheet, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Exported transaction to statement",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents)
	return ref, nil
}

// StatementRow renders the spreadsheet cells for one transaction.
func StatementRow(tx core.Transaction) []any {
	occurred := tx.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	actor := tx.UpdatedBy.Name
	if actor == "" {
		actor = tx.CreatedBy.Name
	}
	return []any{
		occurred.Format("2006-01-02"),
		tx.Wallet,
		tx.ToWallet,
		string(tx.Kind),
		tx.Category,
		core.FormatCents(tx.Amount.Cents),
		tx.Description,
		actor,
		tx.ID,
	}
}
