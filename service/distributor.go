package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/logger"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/metrics"
	"github.com/google/uuid"
)

// PeriodLayout formats a period as "January 2006".
const PeriodLayout = "January 2006"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DistributionInput is everything one run needs.
type DistributionInput struct {
	RunID        string // generated when empty
	Owner        string
	Period       string // defaults to the previous month
	ParentID     string // container the period folder lives in, "" for root
	DocumentName string
	Document     []byte
	Records      []*model.RosterRecord
}

// Distributor drives one distribution run end to end.
type Distributor struct {
	gateway   *Gateway
	extractor *IdentifierExtractor
	prefix    string
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDistributor(gw *Gateway, ex *IdentifierExtractor, cfg *config.DistributionConfig, m *metrics.Metrics) *Distributor {
	prefix := "Payslip"
	if cfg != nil && cfg.FilenamePrefix != "" {
		prefix = cfg.FilenamePrefix
	}
	return &Distributor{
		gateway:   gw,
		extractor: ex,
		prefix:    prefix,
		metrics:   m,
		now:       time.Now,
	}
}

// Run extracts, uploads and links a payslip for every matched roster record.
// Records are updated in place with their links. A precondition failure
// returns the aborted run together with the error; per-row failures only
// show up in the summary and events.
func (d *Distributor) Run(ctx context.Context, in DistributionInput) (*model.DistributionRun, error) {
	run := &model.DistributionRun{
		ID:        in.RunID,
		Owner:     in.Owner,
		Period:    strings.TrimSpace(in.Period),
		Document:  in.DocumentName,
		Status:    model.RunStatusRunning,
		Records:   in.Records,
		Summary:   model.RunSummary{Total: len(in.Records)},
		CreatedAt: d.now(),
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Period == "" {
		run.Period = PreviousMonthPeriod(d.now())
	}

	ctx = logger.WithRunID(ctx, run.ID)
	log := logger.Component(ctx, "distributor")
	log.Info("distribution started", "period", run.Period, "rows", len(in.Records), "document", in.DocumentName)

	pages, pageCount, err := d.extractor.Scan(ctx, in.Document)
	if err != nil {
		return d.abort(ctx, run, err)
	}
	run.Pages = len(pages)
	d.event(ctx, run, "info", "", "Found %d payslip page(s) with a UAN", len(pages))

	splitter, err := NewPageSplitter(in.Document)
	if err != nil {
		return d.abort(ctx, run, err)
	}
	if splitter.PageCount() != pageCount {
		return d.abort(ctx, run, fmt.Errorf("%w: text layer has %d page(s), page tree has %d",
			ErrDocumentUnreadable, pageCount, splitter.PageCount()))
	}

	container, err := d.gateway.ResolveOrCreateContainer(ctx, in.ParentID, run.Period)
	if err != nil {
		return d.abort(ctx, run, fmt.Errorf("%w: %v", ErrContainerUnavailable, err))
	}
	run.Container = container
	d.event(ctx, run, "info", "", "Using folder %q", container.Name)

	for _, rc := range Reconcile(pages, in.Records) {
		d.process(ctx, run, splitter, rc)
	}

	run.Report = BuildReport(in.Records)
	run.Status = model.RunStatusCompleted
	run.CompletedAt = d.now()
	d.metrics.Run(run.Status)
	d.event(ctx, run, "info", "", "Done: %d uploaded, %d failed, %d skipped of %d",
		run.Summary.Uploaded, run.Summary.Failed, run.Summary.Skipped, run.Summary.Total)

	if !run.Summary.Balanced() {
		log.Error("run summary does not add up", "summary", run.Summary)
	}
	return run, nil
}

func (d *Distributor) process(ctx context.Context, run *model.DistributionRun, splitter *PageSplitter, rc model.Reconciliation) {
	rec := rc.Record
	id := NormalizeIdentifier(rec.Identifier)

	switch rc.Status {
	case model.MatchMissingIdentifier:
		run.Summary.Skipped++
		d.metrics.Row("skipped")
		d.event(ctx, run, "warn", "", "Row %d (%s): no UAN, skipped", rec.Row, rec.DisplayName)
		return
	case model.MatchNoPageFound:
		run.Summary.Skipped++
		d.metrics.Row("skipped")
		d.event(ctx, run, "warn", id, "UAN %s: no page found in document, skipped", id)
		return
	}

	filename := PayslipFilename(d.prefix, id, run.Period)
	if strings.Trim(unsafeFilenameChars.ReplaceAllString(id, ""), "._-") == "" {
		filename = PayslipFilename(d.prefix, rec.DisplayName+"_"+rec.Contact, run.Period)
	}

	// A repeated identifier shares the object already uploaded this run.
	for _, h := range run.History {
		if h.Filename == filename {
			rec.AssignedLink = h.Link
			run.Summary.Uploaded++
			d.metrics.Row("uploaded")
			d.event(ctx, run, "info", id, "UAN %s appears again in the roster, reusing %s", id, h.Filename)
			return
		}
	}

	body, err := splitter.Page(rc.Page)
	if err != nil {
		d.fail(ctx, run, id, err)
		return
	}

	res, err := d.gateway.UploadReplacing(ctx, run.Container.ID, filename, body)
	if err != nil {
		d.fail(ctx, run, id, err)
		return
	}

	rec.AssignedLink = res.Link
	run.History = append(run.History, model.UploadRecord{
		Identifier: id,
		Filename:   filename,
		RemoteID:   res.RemoteID,
		Link:       res.Link,
		Timestamp:  d.now(),
	})
	run.Summary.Uploaded++
	d.metrics.Row("uploaded")
	d.event(ctx, run, "info", id, "UAN %s: uploaded %s", id, filename)
}

func (d *Distributor) fail(ctx context.Context, run *model.DistributionRun, id string, err error) {
	run.Summary.Failed++
	d.metrics.Row("failed")
	d.event(ctx, run, "error", id, "UAN %s: upload failed: %v", id, err)
}

func (d *Distributor) abort(ctx context.Context, run *model.DistributionRun, err error) (*model.DistributionRun, error) {
	run.Status = model.RunStatusAborted
	run.ErrorMsg = err.Error()
	run.CompletedAt = d.now()
	d.metrics.Run(run.Status)
	d.event(ctx, run, "error", "", "Run aborted: %v", err)
	return run, err
}

func (d *Distributor) event(ctx context.Context, run *model.DistributionRun, level, id, format string, args ...any) {
	ev := model.RunEvent{
		Time:       d.now(),
		Level:      level,
		Identifier: id,
		Message:    fmt.Sprintf(format, args...),
	}
	run.Events = append(run.Events, ev)

	log := logger.Component(ctx, "distributor")
	attrs := []any{}
	if id != "" {
		attrs = append(attrs, "identifier", id)
	}
	switch level {
	case "error":
		log.Error(ev.Message, attrs...)
	case "warn":
		log.Warn(ev.Message, attrs...)
	default:
		log.Info(ev.Message, attrs...)
	}
}

// PayslipFilename builds the deterministic remote name for one payslip, e.g.
// Payslip_100123456789_March2024.pdf.
func PayslipFilename(prefix, key, period string) string {
	period = strings.ReplaceAll(period, " ", "")
	name := fmt.Sprintf("%s_%s_%s", prefix, key, period)
	return unsafeFilenameChars.ReplaceAllString(name, "_") + ".pdf"
}

// PreviousMonthPeriod names the calendar month before now.
func PreviousMonthPeriod(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -1, 0).Format(PeriodLayout)
}

// IsPrecondition reports whether err aborted a run before any row ran.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrDocumentUnreadable) ||
		errors.Is(err, ErrInvalidRoster) ||
		errors.Is(err, ErrContainerUnavailable)
}
