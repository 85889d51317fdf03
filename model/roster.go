package model

// Canonical roster / report column names.
const (
	ColumnName       = "Employee Name"
	ColumnContact    = "Employee no"
	ColumnIdentifier = "UAN"
	ColumnLink       = "Drive Link"
)

// ReportColumns is the fixed column order of a distribution report.
var ReportColumns = []string{ColumnName, ColumnContact, ColumnIdentifier, ColumnLink}

// RosterRecord is one employee row of the input roster
type RosterRecord struct {
	Row          int    `json:"row"` // 1-based data row, header excluded
	Identifier   string `json:"identifier"`
	DisplayName  string `json:"display_name"`
	Contact      string `json:"contact_number"`
	AssignedLink string `json:"assigned_link,omitempty"`
}

// IdentifierPageMap maps a normalized identifier to its 0-based page index.
type IdentifierPageMap map[string]int

// MatchStatus classifies a roster record against the document.
type MatchStatus string

// MatchStatus constants
const (
	MatchMatched           MatchStatus = "matched"
	MatchMissingIdentifier MatchStatus = "missing_identifier"
	MatchNoPageFound       MatchStatus = "no_page_found"
)

// Reconciliation is the classification of one roster record.
// Page is only meaningful when Status is MatchMatched.
type Reconciliation struct {
	Record *RosterRecord `json:"record"`
	Status MatchStatus   `json:"status"`
	Page   int           `json:"page"`
}

// ReportRow is one line of the four-column distribution report.
type ReportRow struct {
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact_number"`
	Identifier  string `json:"identifier"`
	Link        string `json:"link"`
}

// Report is the ordered result of a distribution run.
type Report struct {
	Rows []ReportRow `json:"rows"`
}
