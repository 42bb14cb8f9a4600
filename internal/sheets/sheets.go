// Package sheets implements the spreadsheet sink: one append call per
// finalized application, with error classification and a best-effort retry
// against the sheet's base range when the configured range cannot be parsed.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultRange is the append target used when none is configured.
const DefaultRange = "Sheet1!A1"

// Sink error taxonomy. Callers match with errors.Is.
var (
	// ErrAuth indicates rejected or insufficient credentials.
	ErrAuth = errors.New("sheets: authorization failed")
	// ErrNotFound indicates the spreadsheet does not exist or is not shared.
	ErrNotFound = errors.New("sheets: spreadsheet not found")
	// ErrBadRange indicates the configured range could not be parsed.
	ErrBadRange = errors.New("sheets: unable to parse range")
	// ErrTransient indicates a quota or server-side failure worth retrying later.
	ErrTransient = errors.New("sheets: transient failure")
)

// Opts holds configuration options for the sheets client.
type Opts struct {
	// SpreadsheetID is the destination spreadsheet identifier.
	SpreadsheetID string
	// Range is the append target range, e.g. "Sheet1!A1".
	Range string
	// CredentialsFile is a path to a service account JSON key file.
	CredentialsFile string
	// CredentialsJSON is inline service account JSON key content; takes
	// precedence over CredentialsFile.
	CredentialsJSON string
}

// Option configures the sheets client.
type Option func(*Opts)

// WithSpreadsheetID sets the destination spreadsheet identifier.
func WithSpreadsheetID(id string) Option {
	return func(o *Opts) { o.SpreadsheetID = id }
}

// WithRange sets the append target range.
func WithRange(rng string) Option {
	return func(o *Opts) { o.Range = rng }
}

// WithCredentialsFile sets the service account key file path.
func WithCredentialsFile(path string) Option {
	return func(o *Opts) { o.CredentialsFile = path }
}

// WithCredentialsJSON sets inline service account key content.
func WithCredentialsJSON(content string) Option {
	return func(o *Opts) { o.CredentialsJSON = content }
}

// appendFunc performs one raw values.append call against a range.
type appendFunc func(ctx context.Context, rng string, row []interface{}) error

// Client appends application rows to a Google Sheet.
type Client struct {
	spreadsheetID string
	rng           string
	appendRow     appendFunc
}

// NewClient creates a sheets client from service account credentials.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewClient invoked", "spreadsheet_set", cfg.SpreadsheetID != "", "range", cfg.Range,
		"credentials_file_set", cfg.CredentialsFile != "", "credentials_json_set", cfg.CredentialsJSON != "")

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id not set")
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, fmt.Errorf("service account credentials not configured")
	}
	clientOpts = append(clientOpts, option.WithScopes(sheets.SpreadsheetsScope))

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		slog.Error("Failed to create sheets service", "error", err)
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	c := &Client{spreadsheetID: cfg.SpreadsheetID, rng: cfg.Range}
	c.appendRow = func(ctx context.Context, rng string, row []interface{}) error {
		body := &sheets.ValueRange{Values: [][]interface{}{row}}
		_, err := svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, body).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	}
	slog.Info("Sheets client ready", "range", cfg.Range)
	return c, nil
}

// Append appends one ordered row of string values. On a range parse failure
// it retries exactly once against the sheet's base range; this is a
// best-effort recovery, not a guarantee that the fallback exists.
func (c *Client) Append(ctx context.Context, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	err := c.appendRow(ctx, c.rng, row)
	if err == nil {
		slog.Debug("Sheets append succeeded", "range", c.rng, "columns", len(values))
		return nil
	}

	classified := classifyError(err)
	if !errors.Is(classified, ErrBadRange) {
		slog.Error("Sheets append failed", "error", classified, "range", c.rng)
		return classified
	}

	fallback := FallbackRange(c.rng)
	slog.Warn("Sheets range unparseable, retrying against base range", "range", c.rng, "fallback", fallback)
	if err := c.appendRow(ctx, fallback, row); err != nil {
		classified := classifyError(err)
		slog.Error("Sheets fallback append failed", "error", classified, "fallback", fallback)
		return classified
	}
	slog.Debug("Sheets fallback append succeeded", "fallback", fallback)
	return nil
}

// FallbackRange strips the cell qualifier from a range, keeping the sheet
// name: "Hisobot!B2:Z" becomes "Hisobot!A1".
func FallbackRange(rng string) string {
	sheet, _, found := strings.Cut(rng, "!")
	if !found {
		return rng + "!A1"
	}
	return sheet + "!A1"
}

// classifyError maps an API error onto the sink error taxonomy.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	switch {
	case apiErr.Code == 401 || apiErr.Code == 403:
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case apiErr.Code == 404:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case apiErr.Code == 400 && strings.Contains(apiErr.Message, "Unable to parse range"):
		return fmt.Errorf("%w: %v", ErrBadRange, err)
	case apiErr.Code == 429 || apiErr.Code >= 500:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
