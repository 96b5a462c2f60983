package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// Client mirrors category lists into a Google Sheet. Each row holds
// user, type, icon and name; row 1 is a header.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	mu      sync.Mutex
	sheetID *int64 // resolved lazily from the sheet title
}

var _ ports.CategoryMirror = (*Client)(nil)

// Options configures the mirror. Credentials come from CredentialsJSON, then
// CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

var header = []any{"User", "Type", "Icon", "Name"}

// New creates a mirror client. Extra client options are appended after the
// credential options, which lets tests point the client at a fake endpoint.
func New(ctx context.Context, opts Options, logger *log.Logger, extra ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Categories"
	}

	clientOpts := extra
	if len(extra) == 0 {
		creds, err := loadCredentials(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func loadCredentials(ctx context.Context, opts Options, logger *log.Logger) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendCategory adds c unless an identical row already exists
func (c *Client) AppendCategory(ctx context.Context, cat core.Category) error {
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	if findRow(rows, cat) >= 0 {
		c.logger.DebugContext(ctx, "Category already mirrored",
			log.FieldCategoryName, cat.Name,
			log.FieldCategoryType, cat.Type.String())
		return nil
	}

	values := [][]any{categoryRow(cat)}
	if len(rows) == 0 {
		values = append([][]any{header}, values...)
	}
	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Category mirrored to sheet",
		log.FieldCategoryName, cat.Name,
		log.FieldCategoryType, cat.Type.String(),
		log.FieldOperation, log.OpCreate)
	return nil
}

// RemoveCategory deletes the row holding c. A missing row is not an error.
func (c *Client) RemoveCategory(ctx context.Context, cat core.Category) error {
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	idx := findRow(rows, cat)
	if idx < 0 {
		c.logger.DebugContext(ctx, "Category not present in sheet",
			log.FieldCategoryName, cat.Name,
			log.FieldCategoryType, cat.Type.String())
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		c.invalidateSheetID()
		return fmt.Errorf("delete row %d in %s: %w", idx+1, c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Category removed from sheet",
		log.FieldCategoryName, cat.Name,
		log.FieldCategoryType, cat.Type.String(),
		log.FieldOperation, log.OpDelete)
	return nil
}

func (c *Client) readRows(ctx context.Context) ([][]string, error) {
	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	return rows, nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.sheetID != nil {
		id := *c.sheetID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.mu.Lock()
			c.sheetID = &id
			c.mu.Unlock()
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

func (c *Client) invalidateSheetID() {
	c.mu.Lock()
	c.sheetID = nil
	c.mu.Unlock()
}
