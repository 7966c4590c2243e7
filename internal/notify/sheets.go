package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetRange = "Sheet1!A:D"
	sheetsScope       = "https://www.googleapis.com/auth/spreadsheets"
	isoMillis         = "2006-01-02T15:04:05.000Z"
)

type SheetsConfig struct {
	ClientEmail string
	// PrivateKey is the PEM key; literal "\n" sequences are unescaped.
	PrivateKey    string
	SpreadsheetID string
	Range         string
}

func (c SheetsConfig) Enabled() bool {
	return c.ClientEmail != "" && c.PrivateKey != "" && c.SpreadsheetID != ""
}

// SheetsNotifier appends one row per deployment.
type SheetsNotifier struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           string
	now           func() time.Time
}

// NewSheetsNotifier authenticates with a service-account JWT. Extra options
// are appended, so tests can point it at another endpoint.
func NewSheetsNotifier(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsNotifier, error) {
	if cfg.SpreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Range == "" {
		cfg.Range = DefaultSheetRange
	}

	var all []option.ClientOption
	if cfg.ClientEmail != "" && cfg.PrivateKey != "" {
		jc := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
			Scopes:     []string{sheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		all = append(all, option.WithTokenSource(jc.TokenSource(ctx)))
	}
	all = append(all, opts...)

	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsNotifier{svc: svc, spreadsheetID: cfg.SpreadsheetID, rng: cfg.Range, now: time.Now}, nil
}

func (s *SheetsNotifier) Name() string { return "sheets" }

func (s *SheetsNotifier) Notify(ctx context.Context, e Event) error {
	row := []interface{}{e.Deployer, e.Contract, e.Network, s.now().UTC().Format(isoMillis)}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}
