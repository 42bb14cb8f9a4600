package sheets

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/googleapi"
)

type appendCall struct {
	rng string
	row []interface{}
}

// fakeAppend returns an appendFunc that replays the given errors in order and
// records every call.
func fakeAppend(calls *[]appendCall, errs ...error) appendFunc {
	i := 0
	return func(ctx context.Context, rng string, row []interface{}) error {
		*calls = append(*calls, appendCall{rng: rng, row: row})
		if i < len(errs) {
			err := errs[i]
			i++
			return err
		}
		return nil
	}
}

func rangeError() error {
	return &googleapi.Error{Code: 400, Message: "Unable to parse range: Hisobot!B2:Z"}
}

func TestAppendSuccess(t *testing.T) {
	var calls []appendCall
	c := &Client{spreadsheetID: "sheet-id", rng: "Sheet1!A1", appendRow: fakeAppend(&calls)}

	if err := c.Append(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0].rng != "Sheet1!A1" {
		t.Fatalf("expected one append against the configured range, got %+v", calls)
	}
	if len(calls[0].row) != 3 || calls[0].row[0] != "a" {
		t.Errorf("unexpected row payload: %v", calls[0].row)
	}
}

func TestAppendRetriesOnceOnBadRange(t *testing.T) {
	var calls []appendCall
	c := &Client{spreadsheetID: "sheet-id", rng: "Hisobot!B2:Z", appendRow: fakeAppend(&calls, rangeError())}

	if err := c.Append(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("expected fallback append to recover, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 append calls, got %d", len(calls))
	}
	if calls[0].rng != "Hisobot!B2:Z" || calls[1].rng != "Hisobot!A1" {
		t.Errorf("unexpected ranges: %q then %q", calls[0].rng, calls[1].rng)
	}
}

func TestAppendFallbackFailureClassified(t *testing.T) {
	var calls []appendCall
	c := &Client{spreadsheetID: "sheet-id", rng: "Hisobot!B2:Z", appendRow: fakeAppend(&calls, rangeError(), rangeError())}

	err := c.Append(context.Background(), []string{"a"})
	if !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange after fallback failure, got %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("expected exactly one fallback retry, got %d calls", len(calls))
	}
}

func TestAppendNoRetryOnOtherErrors(t *testing.T) {
	tests := []struct {
		name     string
		apiErr   error
		expected error
	}{
		{name: "unauthorized", apiErr: &googleapi.Error{Code: 401}, expected: ErrAuth},
		{name: "forbidden", apiErr: &googleapi.Error{Code: 403}, expected: ErrAuth},
		{name: "not found", apiErr: &googleapi.Error{Code: 404}, expected: ErrNotFound},
		{name: "rate limited", apiErr: &googleapi.Error{Code: 429}, expected: ErrTransient},
		{name: "server error", apiErr: &googleapi.Error{Code: 503}, expected: ErrTransient},
		{name: "network error", apiErr: errors.New("connection reset"), expected: ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []appendCall
			c := &Client{spreadsheetID: "sheet-id", rng: "Sheet1!A1", appendRow: fakeAppend(&calls, tt.apiErr)}

			err := c.Append(context.Background(), []string{"a"})
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
			if len(calls) != 1 {
				t.Errorf("expected no retry, got %d calls", len(calls))
			}
		})
	}
}

func TestFallbackRange(t *testing.T) {
	tests := []struct {
		name     string
		rng      string
		expected string
	}{
		{name: "qualified range", rng: "Hisobot!B2:Z", expected: "Hisobot!A1"},
		{name: "base range", rng: "Sheet1!A1", expected: "Sheet1!A1"},
		{name: "bare sheet name", rng: "Hisobot", expected: "Hisobot!A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackRange(tt.rng); got != tt.expected {
				t.Errorf("FallbackRange(%q) = %q, expected %q", tt.rng, got, tt.expected)
			}
		})
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), WithCredentialsJSON("{}")); err == nil {
		t.Error("expected error when spreadsheet id is missing")
	}
	if _, err := NewClient(context.Background(), WithSpreadsheetID("sheet-id")); err == nil {
		t.Error("expected error when credentials are not configured")
	}
}
