package exchange

import (
	"context"
	"strings"

	"flowconnect-backend/internal/domain"
)

// Blocking validation keys. A pending file carrying any issue with one of
// these keys cannot be sent; all other keys are warnings.
var blockingKeys = map[string]bool{
	"required_field":    true,
	"date_format":       true,
	"numeric_field":     true,
	"zip_code":          true,
	"price_calculation": true,
	"future_date":       true,
	"line_level_data":   true,
}

// IsBlockingKey reports whether a validation key prevents sending.
func IsBlockingKey(key string) bool {
	return blockingKeys[key]
}

// BlockingKeys returns the closed blocking set, for SQL IN clauses.
func BlockingKeys() []string {
	keys := make([]string, 0, len(blockingKeys))
	for k := range blockingKeys {
		keys = append(keys, k)
	}
	return keys
}

// issueTitleKey addresses the title lookup table: exact (key, column) first,
// then (key, "") as fallback.
type issueTitleKey struct {
	ValidationKey string
	ColumnName    string
}

var issueTitles = map[issueTitleKey]string{
	{"required_field", ""}:                "Missing Required Field",
	{"required_field", "mpn"}:             "Missing Manufacturer Part Number",
	{"required_field", "quantity"}:        "Missing Quantity",
	{"date_format", ""}:                   "Invalid Date Format",
	{"numeric_field", ""}:                 "Non-Numeric Value",
	{"numeric_field", "quantity"}:         "Quantity Is Not A Number",
	{"numeric_field", "unit_price"}:       "Unit Price Is Not A Number",
	{"zip_code", ""}:                      "Invalid Zip Code",
	{"price_calculation", ""}:             "Price Calculation Mismatch",
	{"future_date", ""}:                   "Date In The Future",
	{"line_level_data", ""}:               "Invalid Line Level Data",
	{"empty_file", ""}:                    "File Has No Data Rows",
	{"unknown_column", ""}:                "Unrecognized Column",
}

// IssueTitle resolves a human title for an issue: (key, column) first,
// (key, "") next, title-cased key as last resort.
func IssueTitle(validationKey, columnName string) string {
	if title, ok := issueTitles[issueTitleKey{validationKey, columnName}]; ok {
		return title
	}
	if title, ok := issueTitles[issueTitleKey{validationKey, ""}]; ok {
		return title
	}
	words := strings.Split(validationKey, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Validator inspects an uploaded file and produces validation issues. The
// pipeline owns issue persistence and status transitions; implementations
// only report findings.
type Validator interface {
	Validate(ctx context.Context, file *domain.ExchangeFile, data []byte) ([]domain.FileValidationIssue, error)
}

// BasicValidator performs the structural checks that need no knowledge of
// the POS content itself.
type BasicValidator struct{}

func (BasicValidator) Validate(ctx context.Context, file *domain.ExchangeFile, data []byte) ([]domain.FileValidationIssue, error) {
	var issues []domain.FileValidationIssue
	if file.RowCount == 0 {
		issues = append(issues, domain.FileValidationIssue{
			ExchangeFileID: file.ID,
			RowNumber:      0,
			ValidationKey:  "empty_file",
			Message:        IssueTitle("empty_file", ""),
		})
	}
	return issues, nil
}

// IssueGroup is the severity-grouped view returned to callers.
type IssueGroup struct {
	Severity string                       `json:"severity"` // blocking | warning
	Issues   []domain.FileValidationIssue `json:"issues"`
}

// GroupIssues splits issues into blocking and warning groups, preserving
// order within each.
func GroupIssues(issues []domain.FileValidationIssue) []IssueGroup {
	var blocking, warning []domain.FileValidationIssue
	for _, issue := range issues {
		if IsBlockingKey(issue.ValidationKey) {
			blocking = append(blocking, issue)
		} else {
			warning = append(warning, issue)
		}
	}
	var out []IssueGroup
	if len(blocking) > 0 {
		out = append(out, IssueGroup{Severity: "blocking", Issues: blocking})
	}
	if len(warning) > 0 {
		out = append(out, IssueGroup{Severity: "warning", Issues: warning})
	}
	return out
}
