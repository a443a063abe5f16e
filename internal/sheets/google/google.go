package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// mu serialises row lookups with the writes that depend on them.
	mu      sync.Mutex
	sheetID *int64
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// Credentials selects how the client authenticates. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials, opts ...goption.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if sheetName == "" {
		sheetName = "Expenses"
	}

	switch {
	case creds.JSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		opts = append(opts, goption.WithCredentialsJSON([]byte(creds.JSON)))
	case creds.File != "":
		slog.InfoContext(ctx, "Using service account credentials file", "path", creds.File)
		opts = append(opts, goption.WithCredentialsFile(creds.File))
	}
	opts = append(opts,
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))

	return newClient(ctx, spreadsheetID, sheetName, opts...)
}

func newClient(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
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

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Upsert writes e into its row, appending one when the expense has never
// been mirrored. The header row is written on first use.
func (c *Client) Upsert(ctx context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		return "", errors.New("expense has no ID")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}

	row := findRow(ids, e.ID)
	if row == 0 {
		if len(ids) == 0 {
			if err := c.write(ctx, rowRange(c.sheetName, 1), header); err != nil {
				return "", fmt.Errorf("write header: %w", err)
			}
			ids = append(ids, []any{header[0]})
		}
		// Rows are written in place rather than appended so the reference
		// returned is exact.
		row = len(ids) + 1
	}

	ref := rowRange(c.sheetName, row)
	if err := c.write(ctx, ref, toRow(e)); err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}
	return ref, nil
}

// Delete removes the row mirroring expenseID.
func (c *Client) Delete(ctx context.Context, expenseID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, expenseID)
	if row == 0 {
		slog.DebugContext(ctx, "Expense not present in sheet", "expense_id", expenseID)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := columnRange(c.sheetName, "A")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) write(ctx context.Context, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// lookupSheetID resolves the numeric tab ID that row deletion needs.
func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
