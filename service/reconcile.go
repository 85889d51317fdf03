package service

import (
	"strings"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
)

// NormalizeIdentifier is applied to identifiers from both the document and
// the roster before they are compared.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Reconcile classifies every roster record against the page map. The
// result has one entry per record, in roster order.
func Reconcile(pages model.IdentifierPageMap, records []*model.RosterRecord) []model.Reconciliation {
	out := make([]model.Reconciliation, 0, len(records))
	for _, rec := range records {
		id := NormalizeIdentifier(rec.Identifier)
		if id == "" {
			out = append(out, model.Reconciliation{Record: rec, Status: model.MatchMissingIdentifier})
			continue
		}
		page, ok := pages[id]
		if !ok {
			out = append(out, model.Reconciliation{Record: rec, Status: model.MatchNoPageFound})
			continue
		}
		out = append(out, model.Reconciliation{Record: rec, Status: model.MatchMatched, Page: page})
	}
	return out
}
