package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/logger"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/metrics"
	"golang.org/x/time/rate"
)

// DefaultMessageTemplate is the SMS body sent for each payslip.
const DefaultMessageTemplate = "Hello! {{.Name}},\n\n" +
	"Your payslip for {{.Period}} is ready.\n\n" +
	"Download Link: {{.Link}}\n\n" +
	"This link will expire in 30 days.\n\n" +
	"Regards\nHR Team"

var nonDigits = regexp.MustCompile(`\D`)

type messageData struct {
	Name   string
	Period string
	Link   string
}

// Dispatcher sends one message per linked report row, paced so the gateway
// is not flooded.
type Dispatcher struct {
	sender      MessageSender
	template    *template.Template
	countryCode string
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
}

func NewDispatcher(sender MessageSender, cfg *config.SMSConfig, m *metrics.Metrics) (*Dispatcher, error) {
	text := cfg.Template
	if text == "" {
		text = DefaultMessageTemplate
	}
	tmpl, err := template.New("sms").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid sms template: %w", err)
	}

	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	return &Dispatcher{
		sender:      sender,
		template:    tmpl,
		countryCode: cfg.CountryCode,
		limiter:     rate.NewLimiter(limit, 1),
		metrics:     m,
	}, nil
}

// Dispatch notifies every report row that carries a link. A failing row is
// recorded and does not stop the rest; only a cancelled context ends the
// pass early, returning the outcomes so far.
func (d *Dispatcher) Dispatch(ctx context.Context, report *model.Report, period string) (*model.DispatchLog, error) {
	log := logger.Component(ctx, "dispatcher")
	out := &model.DispatchLog{Period: period}

	for i, row := range report.Rows {
		outcome := model.DispatchOutcome{Row: i + 1, Name: row.DisplayName, Phone: row.Contact}

		switch {
		case strings.TrimSpace(row.Link) == "":
			outcome.Status = model.DispatchSkippedNoLink
			log.Info("skipped, missing link", "row", outcome.Row, "name", row.DisplayName)
		case strings.TrimSpace(row.Contact) == "":
			outcome.Status = model.DispatchSkippedNoPhone
			log.Info("skipped, missing phone", "row", outcome.Row, "name", row.DisplayName)
		default:
			if err := d.limiter.Wait(ctx); err != nil {
				return out, err
			}
			outcome.Phone = FormatPhone(row.Contact, d.countryCode)
			d.send(ctx, &outcome, row, period)
		}

		switch outcome.Status {
		case model.DispatchSent:
			out.Sent++
		case model.DispatchFailed:
			out.Failed++
		default:
			out.Skipped++
		}
		d.metrics.Notification(outcome.Status)
		out.Outcomes = append(out.Outcomes, outcome)
	}

	log.Info("sms pass complete", "sent", out.Sent, "failed", out.Failed, "skipped", out.Skipped)
	return out, nil
}

func (d *Dispatcher) send(ctx context.Context, outcome *model.DispatchOutcome, row model.ReportRow, period string) {
	log := logger.Component(ctx, "dispatcher")

	var msg strings.Builder
	if err := d.template.Execute(&msg, messageData{Name: row.DisplayName, Period: period, Link: row.Link}); err != nil {
		outcome.Status = model.DispatchFailed
		outcome.Response = err.Error()
		return
	}

	resp, err := d.sender.Send(ctx, outcome.Phone, msg.String())
	outcome.Response = resp
	if err != nil {
		outcome.Status = model.DispatchFailed
		if outcome.Response == "" {
			outcome.Response = err.Error()
		}
		log.Warn("sms failed", "row", outcome.Row, "name", row.DisplayName, "phone", outcome.Phone, "error", err)
		return
	}
	outcome.Status = model.DispatchSent
	log.Info("sms sent", "row", outcome.Row, "name", row.DisplayName, "phone", outcome.Phone)
}

// FormatPhone normalizes a contact number to E.164 using countryCode for
// local numbers. Numbers it cannot place are returned as bare digits.
func FormatPhone(raw, countryCode string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	digits := nonDigits.ReplaceAllString(raw, "")

	switch {
	case len(digits) == 10:
		return "+" + countryCode + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return "+" + countryCode + digits[1:]
	case len(digits) == 10+len(countryCode) && strings.HasPrefix(digits, countryCode):
		return "+" + digits
	case strings.HasPrefix(raw, "+"):
		return raw
	default:
		return digits
	}
}
