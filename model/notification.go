package model

// Dispatch outcome statuses
const (
	DispatchSent           = "sent"
	DispatchFailed         = "failed"
	DispatchSkippedNoLink  = "skipped_no_drive_link"
	DispatchSkippedNoPhone = "skipped_no_phone"
)

// DispatchOutcome records what happened to one report row.
type DispatchOutcome struct {
	Row      int    `json:"row"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
}

// DispatchLog is the audit trail of one notification pass.
type DispatchLog struct {
	Period   string            `json:"period"`
	Outcomes []DispatchOutcome `json:"outcomes"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"`
}
